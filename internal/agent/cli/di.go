package cli

import (
	"github.com/IvanChernomyrdin/go-polls/internal/agent/api"
	pwcrypto "github.com/IvanChernomyrdin/go-polls/internal/shared/crypto"
)

// для тестов
var (
	NewAPIClient     = api.NewClient
	ReadPassword     = readPassword
	MockArgon2Params = pwcrypto.DefaultArgon2Params()
)
