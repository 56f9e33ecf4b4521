/*
Package authsdk is a Go client for the session service.

The service issues a short-lived signed access token and an opaque refresh
token per subject. Clients present the access token as a bearer credential;
once it expires, /refresh_token mints a new one as long as the stored refresh
token is still valid. Logout deletes the refresh token, after which the
subject has to log in again.

# Quick Start

	client := authsdk.NewSDKClient("http://localhost:8080", "auth")

	session, err := client.Authenticate(ctx, subjectID)
	if err != nil {
		log.Fatal(err)
	}

	// Info rotates the access token once if the service reports it expired.
	info, err := session.Info(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("token expires at", time.Unix(info.ExpiresAt, 0))

	_ = session.Logout(ctx)

# Errors

Every non-2xx response is returned as an *APIError. Compare with errors.Is
against the predefined values:

	if errors.Is(err, authsdk.ErrInvalidToken) {
		// log in again
	}

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
