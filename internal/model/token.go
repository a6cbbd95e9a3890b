package model

// TokenManager issues and validates signed bearer tokens.
type TokenManager interface {
	GenerateAccessToken(identity Identity) (string, error)
	ParseAccessToken(token string) (Identity, error)
}
