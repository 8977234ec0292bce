package main

import "github.com/EO-DataHub/eodhp-activity-signup/cmd"

func main() {
	cmd.Execute()
}
