package main

import "github.com/oshokin/fieldboot/cmd/fieldboot/cmd"

func main() {
	cmd.Execute()
}
