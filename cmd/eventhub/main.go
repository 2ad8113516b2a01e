package main

import "eventhub/cmd/eventhub/cmd"

// @title Event Hub API
// @version 1.0
// @description Event discovery, participation and capacity enforcement.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cmd.Execute()
}
