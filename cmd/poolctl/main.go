// Command poolctl exercises the pool allocator with synthetic workloads.
package main

func main() {
	execute()
}
