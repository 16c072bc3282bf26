package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/taponce/taponce_backend/config"
	"github.com/taponce/taponce_backend/models"
)

func dbName() string {
	if name := os.Getenv("DB_NAME"); name != "" {
		return name
	}
	return "taponce"
}

// SaveNotification saves an in-app notification to the database
func SaveNotification(db *mongo.Client, userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	collection := db.Database(dbName()).Collection("notifications")

	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := collection.InsertOne(context.Background(), notification)
	return err
}

// SendEmail sends a plain-text email using the configured SMTP server.
func SendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}

// SendAgentCredentialsEmail emails login credentials to a newly provisioned
// agent.
func SendAgentCredentialsEmail(agentName, email, tempPassword, referralCode string) error {
	subject := "Welcome to TapOnce - Your Agent Account"
	body := fmt.Sprintf("Dear %s,\n\nYour TapOnce agent account has been created.\n\nLogin email: %s\nTemporary password: %s\nYour referral code: %s\n\nPlease log in and change your password as soon as possible.\n\nBest regards,\nTapOnce Team", agentName, email, tempPassword, referralCode)
	return SendEmail(email, subject, body)
}

// NotifyOrderStatusChange records an in-app notification for an order status
// change and pushes it over FCM when the target has a registered device.
func NotifyOrderStatusChange(db *mongo.Client, userID primitive.ObjectID, order *models.Order) {
	title := "Order Update"
	message := fmt.Sprintf("Order #%d is now %s", order.OrderNumber, order.Status)
	data := map[string]interface{}{
		"orderId":     order.ID.Hex(),
		"orderNumber": fmt.Sprintf("%d", order.OrderNumber),
		"status":      string(order.Status),
	}

	if err := SaveNotification(db, userID, title, message, "order_status", data); err != nil {
		log.Printf("Failed to save order notification: %v", err)
	}
	if err := SendFCMNotificationToUser(db, userID, title, message, data); err != nil {
		log.Printf("FCM push skipped for user %s: %v", userID.Hex(), err)
	}
}

// SendFCMNotificationToAgent sends a Firebase Cloud Messaging notification to
// an agent's registered device.
func SendFCMNotificationToAgent(db *mongo.Client, agentID primitive.ObjectID, title, message string, data map[string]interface{}) error {
	collection := db.Database(dbName()).Collection("agents")
	var agent models.Agent
	err := collection.FindOne(context.Background(), bson.M{"_id": agentID}).Decode(&agent)
	if err != nil {
		return fmt.Errorf("failed to find agent: %w", err)
	}

	if agent.FcmToken == "" {
		return fmt.Errorf("agent has no FCM token")
	}

	return sendFCM(agent.FcmToken, title, message, data)
}

// SendFCMNotificationToUser sends a Firebase Cloud Messaging notification to a user
func SendFCMNotificationToUser(db *mongo.Client, userID primitive.ObjectID, title, message string, data map[string]interface{}) error {
	collection := db.Database(dbName()).Collection("users")
	var user models.User
	err := collection.FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.FcmToken == "" {
		return fmt.Errorf("user has no FCM token")
	}

	return sendFCM(user.FcmToken, title, message, data)
}

func sendFCM(token, title, message string, data map[string]interface{}) error {
	if config.FirebaseApp == nil {
		return fmt.Errorf("firebase app not initialized")
	}

	ctx := context.Background()
	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		log.Printf("Error getting messaging client: %v", err)
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	notificationData := map[string]string{
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if data != nil {
		for key, value := range data {
			if str, ok := value.(string); ok {
				notificationData[key] = str
			} else {
				notificationData[key] = ""
			}
		}
	}

	fcmMessage := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
		Data: notificationData,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "taponce_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  message,
					},
					Sound: "default",
					Badge: func() *int { v := 1; return &v }(),
				},
			},
		},
	}

	response, err := client.Send(ctx, fcmMessage)
	if err != nil {
		log.Printf("Error sending FCM notification: %v", err)
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}

	log.Printf("FCM notification sent: %s", response)
	return nil
}
