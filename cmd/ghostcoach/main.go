// Command ghostcoach manages reference poses and replays recorded landmark
// streams through the coaching pipeline.
package main

func main() {
	Execute()
}
