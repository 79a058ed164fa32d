// Handler wiring.
//
// Handlers groups the HTTP endpoints for verification, chat/chain, sessions,
// and health. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
package handlers

// Handlers bundles the endpoint implementations and their dependencies.
type Handlers struct {
	verSvc    VerificationService
	sessSvc   SessionService
	routerSvc RouterService
	health    HealthInfo
}

// New constructs and returns a Handlers instance bound to the given services.
func New(verSvc VerificationService, sessSvc SessionService, routerSvc RouterService, health HealthInfo) *Handlers {
	return &Handlers{verSvc: verSvc, sessSvc: sessSvc, routerSvc: routerSvc, health: health}
}
