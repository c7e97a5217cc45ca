// Package auth provides the token middlewares of the JSON API.
//
// Bearer verifies the "Authorization: Bearer <token>" header with the auth
// service, rejects second factor challenge tokens and adds the claims to
// fiber.Locals under LocalsClaims. RequireAdmin resolves the token's user and
// only lets active administrators through.
//
// Usage:
//
//	router.Get("/config", authmw.Bearer(svc), authmw.RequireAdmin(svc), handler)
package auth
