// Package adminapi implements the HTTP handlers of the admin server.
package adminapi

import "sync"

var registerOnce sync.Once

// Init registers every admin route with the webserver. It must run before
// webserver.NewAdminServer.
func Init() {
	registerOnce.Do(func() {
		registerSystemRoutes()
		registerProductRoutes()
		registerCustomerRoutes()
		registerStaffRoutes()
		registerAssignmentRoutes()
		registerAuthRoutes()
		registerAuditRoutes()
		registerSheetRoutes()
	})
}
