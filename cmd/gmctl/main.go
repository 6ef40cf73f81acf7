package main

import (
	"github.com/joho/godotenv"

	"github.com/wuya51/gmic-buildathon/internal/ctl"
)

func main() {
	_ = godotenv.Load(".env")
	ctl.Execute()
}
