package domain

// PayoutStatus reported by the payment gateway for an accepted payout.
type PayoutStatus string

const (
	PayoutStatusQueued    PayoutStatus = "QUEUED"
	PayoutStatusCompleted PayoutStatus = "COMPLETED"
)

// PayoutResult is the closed success result of a gateway payout call.
// Any failure, including network errors and timeouts, surfaces as an error
// instead; there is no partial-success variant.
type PayoutResult struct {
	PayoutID string       `json:"payout_id"`
	Status   PayoutStatus `json:"status"`
}

// PixKeyType classifies a PIX payout destination for the gateway API.
type PixKeyType string

const (
	PixKeyTypeEmail  PixKeyType = "EMAIL"
	PixKeyTypeCPF    PixKeyType = "CPF"
	PixKeyTypeCNPJ   PixKeyType = "CNPJ"
	PixKeyTypePhone  PixKeyType = "TELEFONE"
	PixKeyTypeRandom PixKeyType = "CHAVE_ALEATORIA"
)

// DetectPixKeyType infers the key type from the destination's shape.
func DetectPixKeyType(key string) PixKeyType {
	switch {
	case containsRune(key, '@'):
		return PixKeyTypeEmail
	case len(key) == 11 && allDigits(key):
		return PixKeyTypeCPF
	case len(key) == 14 && allDigits(key):
		return PixKeyTypeCNPJ
	case len(key) > 0 && key[0] == '+':
		return PixKeyTypePhone
	}
	return PixKeyTypeRandom
}

func containsRune(s string, r byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == r {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
