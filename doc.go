// Package devconnect provides the authentication core of the devconnect
// profile service: credential issuance, credential verification and stateless
// session authorization through signed bearer tokens.
//
// Credentials:
//   - Accounts are persisted via Bun. The email column carries a unique
//     constraint and is the authoritative duplicate guard; a constraint
//     violation surfaces as ErrDuplicateAccount just like the pre-check.
//   - Passwords are stored as bcrypt digests. PasswordHasher.HashContext runs
//     the adaptive hash off the request goroutine so an abandoned request
//     returns early without persisting anything.
//
// Tokens:
//   - TokenService signs {user: {id}} plus iat/exp with a single process-wide
//     secret passed in at construction. Validation never touches the store.
//   - middleware/jwtware is the auth gate placed in front of protected routes;
//     it reads one header and attaches the validated claims to the request.
//
// Activity sinks:
//   - ActivitySink receives registration and login events. Sinks run best
//     effort (errors are logged) so telemetry never blocks authentication.
package devconnect
