package auth

import (
	"net/http"

	"github.com/spf13/cast"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"waybarx/internal/netx"
)

// RequireAuth rejects HTTP requests that carry no valid panel token
func RequireAuth(store *TokenStore, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := GetTokenFromRequest(r)
		if !ok {
			netx.WriteUnauthorized(w, "Missing panel token")
			return
		}
		if _, valid := store.Validate(token); !valid {
			netx.WriteUnauthorized(w, "Invalid panel token")
			return
		}
		next(w, r)
	}
}

// RequirePanelToken only admits Socket.IO clients presenting the token
// issued for connector in their handshake auth payload
func RequirePanelToken(store *TokenStore, connector string) func(*socket.Socket, func(*socket.ExtendedError)) {
	return func(client *socket.Socket, next func(*socket.ExtendedError)) {
		token := cast.ToString(cast.ToStringMap(client.Handshake().Auth)["token"])
		if owner, ok := store.Validate(token); ok && owner == connector {
			next(nil)
			return
		}
		next(socket.NewExtendedError("Unauthorized", ""))
	}
}
