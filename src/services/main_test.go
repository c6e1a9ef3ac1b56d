package services

import (
	"os"
	"testing"

	"github.com/username/walletfolio/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}
