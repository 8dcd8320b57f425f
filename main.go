package main

import "github.com/stooppolitics/stoop-cms/cmd"

// @title           Stoop CMS API
// @version         1.0.0
// @description     Record, transcribe, edit and publish Stoop Politics episodes
// @contact.name    Stoop Politics
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Supabase access token, as "Bearer <token>"
func main() {
	cmd.Execute()
}
