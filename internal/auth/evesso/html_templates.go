package evesso

// Minimal pages shown in the user's browser after the SSO redirect lands on
// the local callback server.

const loginSuccessHTML = `<!DOCTYPE html>
<html>
<head><title>EVE SSO Login</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em;">
<h1>Authorization complete</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

const loginDeniedHTML = `<!DOCTYPE html>
<html>
<head><title>EVE SSO Login</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em;">
<h1>Authorization failed</h1>
<p>The SSO did not return an authorization code. Close this window and check the terminal.</p>
</body>
</html>`
