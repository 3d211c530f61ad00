//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.2 init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs

// @title           Health System API
// @version         1.0
// @description     Registry of health programs, clients and enrollments with role-based access.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import "github.com/afyalink/health-registry/cmd/server/cmd"

func main() {
	cmd.Execute()
}
