// Command counterd aggregates counter increments in memory and drains them
// to the configured sinks periodically
package main

func main() {
	Execute()
}
