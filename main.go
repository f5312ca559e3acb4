package main

import "github.com/ValentinKolb/tfstated/cmd"

func main() {
	cmd.Execute()
}
