// Package jwt implements HS256 JSON Web Tokens on the standard library.
//
// It intentionally supports a single algorithm: tokens carrying any other
// header are rejected outright, which removes the classic algorithm-confusion
// attack surface. The Service generates and parses tokens; StandardClaims
// covers the registered claims from RFC 7519 and validates expiry on Parse.
//
//	svc, err := jwt.NewFromString(cfg.SigningKey)
//	token, err := svc.Generate(jwt.StandardClaims{
//	    Subject:   userID,
//	    ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
//	})
package jwt
