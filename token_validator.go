package auth

// TokenValidator is the verification half of TokenService. RouteAuthenticator
// accepts extra validators so a retiring signing key keeps verifying the
// tokens it issued until they expire.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrUnableToDecodeSession
	}
	return f(tokenString)
}

// MultiTokenValidator tries each validator in order and accepts the first
// success. A signature rejection moves on to the next key. Expiry stops the
// chain: the rejecting key already verified the signature.
type MultiTokenValidator []TokenValidator

func (m MultiTokenValidator) Validate(tokenString string) (AuthClaims, error) {
	var lastErr error
	for _, v := range m {
		if v == nil {
			continue
		}
		claims, err := v.Validate(tokenString)
		if err == nil {
			return claims, nil
		}
		if IsTokenExpiredError(err) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrTokenMalformed
	}
	return nil, lastErr
}
