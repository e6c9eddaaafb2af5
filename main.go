package main

import "github.com/Tiliavir/shiftpay/cmd"

func main() {
	cmd.Execute()
}
