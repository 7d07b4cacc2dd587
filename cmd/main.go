// cmd/main.go
package main

import (
	"os"
	"personal-brand-api/app"
	"personal-brand-api/logger"
)

// @title           Personal Brand API
// @version         1.0
// @description     Authentication and profile API for a personal brand site.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:3001
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
