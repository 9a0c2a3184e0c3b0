// Package auth implements the authentication and authorization subsystem of
// the tours API: password hashing, JWT issuance and validation, route
// protection with role based access control, and the credential flows
// (signup, login, password change, password reset).
package auth
