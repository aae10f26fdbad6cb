package main

import "go.minekube.com/perms/pkg/cmd/perms"

func main() {
	perms.Main()
}
