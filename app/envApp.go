package app

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/CWPramod/ems-platform-sub002/utils"
)

func LoadEnvVariables() {
	err := godotenv.Load()

	if err != nil {
		utils.Fatalf("Error loading .env file %v", err)
		os.Exit(1)
	}
}
