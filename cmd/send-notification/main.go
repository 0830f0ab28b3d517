package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/DevRickLin/matchmate/internal/infra/feishu"
)

func main() {
	_ = godotenv.Load()

	appID := os.Getenv("FEISHU_APP_ID")
	appSecret := os.Getenv("FEISHU_APP_SECRET")

	if appID == "" || appSecret == "" {
		fmt.Println("Error: FEISHU_APP_ID and FEISHU_APP_SECRET must be set")
		os.Exit(1)
	}

	chatID := os.Getenv("FEISHU_NOTIFY_CHAT_ID")
	message := "matchmate notifications are working."
	switch len(os.Args) {
	case 1:
	case 2:
		message = os.Args[1]
	default:
		chatID, message = os.Args[1], os.Args[2]
	}
	if chatID == "" {
		fmt.Println("Usage: send-notification [chat_id] <message>")
		fmt.Println("chat_id defaults to FEISHU_NOTIFY_CHAT_ID")
		os.Exit(1)
	}

	client := feishu.NewClient(appID, appSecret)
	if err := client.SendPost(context.Background(), chatID, "matchmate", message); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Message sent successfully!")
}
