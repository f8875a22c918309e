package main

import "context"

func main() {
	mustExecute(context.Background())
}
