package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/realtime"
	"github.com/skillswap/skillswap-backend/internal/services/notify"
)

const (
	maxAttachments    = 5
	maxAttachmentSize = 10 * 1024 * 1024
)

type ChatHandler struct {
	DB        *gorm.DB
	Bridge    *realtime.Bridge
	Notifier  *notify.Notifier
	UploadDir string
}

func NewChatHandler(db *gorm.DB, bridge *realtime.Bridge, notifier *notify.Notifier, uploadDir string) *ChatHandler {
	return &ChatHandler{DB: db, Bridge: bridge, Notifier: notifier, UploadDir: uploadDir}
}

type CreateConversationReq struct {
	RecipientID string  `json:"recipient_id"`
	ProjectID   *string `json:"project_id"`
}

// CreateOrGetConversation starts a thread with a recipient, or returns the
// existing one. A malformed or unknown recipient id short-circuits before
// any row is created.
func (h *ChatHandler) CreateOrGetConversation(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req CreateConversationReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	recipientID, err := uuid.Parse(strings.TrimSpace(req.RecipientID))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid recipient id format")
	}
	if recipientID == userID {
		return fail(c, fiber.StatusBadRequest, "cannot start a conversation with yourself")
	}

	var recipient models.User
	if err := h.DB.First(&recipient, "id = ?", recipientID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "recipient not found")
	}

	var me models.User
	if err := h.DB.First(&me, "id = ?", userID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "user not found")
	}

	// conversations are stored client-side/freelancer-side; map the pair by
	// role so both orderings resolve to the same row
	clientID, freelancerID := userID, recipientID
	if me.Role == models.RoleFreelancer {
		clientID, freelancerID = recipientID, userID
	}

	var projectID *uuid.UUID
	if req.ProjectID != nil && *req.ProjectID != "" {
		pid, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid project id")
		}
		projectID = &pid
	}

	var conv models.Conversation
	err = h.DB.
		Where("client_id = ? AND freelancer_id = ?", clientID, freelancerID).
		First(&conv).Error

	created := false
	if err == gorm.ErrRecordNotFound {
		conv = models.Conversation{
			ClientID:      clientID,
			FreelancerID:  freelancerID,
			ProjectID:     projectID,
			LastMessageAt: time.Now(),
		}
		if createErr := h.DB.Create(&conv).Error; createErr != nil {
			// a concurrent create won the race; the unique index on the
			// pair guarantees exactly one row, so fetch that one
			if isUniqueViolation(createErr) {
				if err := h.DB.
					Where("client_id = ? AND freelancer_id = ?", clientID, freelancerID).
					First(&conv).Error; err == nil {
					return c.JSON(fiber.Map{"success": true, "created": false, "data": conv})
				}
			}
			log.Println("error creating conversation:", createErr)
			return fail(c, fiber.StatusInternalServerError, "failed to create conversation")
		}
		created = true
	} else if err != nil {
		log.Println("error fetching conversation:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch conversation")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"created": created,
		"data":    conv,
	})
}

type UserMini struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

type MessageResponse struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	SenderID       string          `json:"sender_id"`
	Type           string          `json:"type"`
	Text           string          `json:"text"`
	Attachments    json.RawMessage `json:"attachments,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	IsRead         bool            `json:"is_read"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toMessageResponse(msg *models.Message) MessageResponse {
	return MessageResponse{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		Type:           msg.Type,
		Text:           msg.Text,
		Attachments:    json.RawMessage(msg.Attachments),
		Metadata:       json.RawMessage(msg.Metadata),
		IsRead:         msg.IsRead,
		CreatedAt:      msg.CreatedAt,
	}
}

type ConversationOut struct {
	ID            string           `json:"id"`
	ClientID      string           `json:"client_id"`
	FreelancerID  string           `json:"freelancer_id"`
	ProjectID     *uuid.UUID       `json:"project_id,omitempty"`
	LastMessageAt time.Time        `json:"last_message_at"`
	UnreadCount   int64            `json:"unread_count"`
	Client        *UserMini        `json:"client,omitempty"`
	Freelancer    *UserMini        `json:"freelancer,omitempty"`
	LastMessage   *MessageResponse `json:"last_message,omitempty"`
}

func userMini(u *models.User) *UserMini {
	if u == nil {
		return nil
	}
	return &UserMini{
		ID:         u.ID.String(),
		Name:       u.Name,
		Role:       string(u.Role),
		IsVerified: u.IsVerified,
	}
}

// GetConversations returns the caller's threads, newest activity first, with
// unread counts and last messages for the list view.
func (h *ChatHandler) GetConversations(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var convs []models.Conversation
	if err := h.DB.
		Preload("Client").
		Preload("Freelancer").
		Preload("Project").
		Where("client_id = ? OR freelancer_id = ?", userUUID, userUUID).
		Order("last_message_at DESC").
		Find(&convs).Error; err != nil {
		log.Println("error fetching conversations:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch conversations")
	}

	out := make([]ConversationOut, 0, len(convs))
	for _, conv := range convs {
		var unreadCount int64
		h.DB.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id != ? AND is_read = false", conv.ID, userUUID).
			Count(&unreadCount)

		var last models.Message
		var lastPtr *MessageResponse
		if err := h.DB.
			Where("conversation_id = ?", conv.ID).
			Order("created_at DESC").
			Limit(1).
			First(&last).Error; err == nil {
			resp := toMessageResponse(&last)
			lastPtr = &resp
		}

		out = append(out, ConversationOut{
			ID:            conv.ID.String(),
			ClientID:      conv.ClientID.String(),
			FreelancerID:  conv.FreelancerID.String(),
			ProjectID:     conv.ProjectID,
			LastMessageAt: conv.LastMessageAt,
			UnreadCount:   unreadCount,
			Client:        userMini(conv.Client),
			Freelancer:    userMini(conv.Freelancer),
			LastMessage:   lastPtr,
		})
	}

	return ok(c, out)
}

// GetUnreadTotal counts unread messages across all of the user's threads.
func (h *ChatHandler) GetUnreadTotal(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var count int64
	err = h.DB.Model(&models.Message{}).
		Joins("JOIN conversations ON messages.conversation_id = conversations.id").
		Where("(conversations.client_id = ? OR conversations.freelancer_id = ?) AND messages.sender_id != ? AND messages.is_read = false",
			userUUID, userUUID, userUUID).
		Count(&count).Error
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to count unread messages")
	}

	return ok(c, count)
}

func (h *ChatHandler) loadConversation(c *fiber.Ctx, userID uuid.UUID) (*models.Conversation, error) {
	convID, err := paramUUID(c, "id")
	if err != nil {
		return nil, fail(c, fiber.StatusBadRequest, "invalid conversation id")
	}

	var conv models.Conversation
	if err := h.DB.First(&conv, "id = ?", convID).Error; err != nil {
		return nil, fail(c, fiber.StatusNotFound, "conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return nil, fail(c, fiber.StatusForbidden, "access denied")
	}
	return &conv, nil
}

// GetMessages returns a thread chronologically and marks the incoming side
// read; viewing is the implicit read receipt.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	conv, errResp := h.loadConversation(c, userID)
	if conv == nil {
		return errResp
	}

	var messages []models.Message
	if err := h.DB.
		Where("conversation_id = ?", conv.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		log.Println("error fetching messages:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch messages")
	}

	if err := h.markRead(conv, userID); err != nil {
		// don't fail the read path over a receipt
		log.Println("error marking messages as read:", err)
	}

	responses := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, toMessageResponse(&messages[i]))
	}

	return ok(c, responses)
}

// markRead flips unread incoming messages and tells the peer's open view.
// The UPDATE is idempotent, so duplicate receipts are harmless.
func (h *ChatHandler) markRead(conv *models.Conversation, userID uuid.UUID) error {
	res := h.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = false", conv.ID, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected > 0 {
		h.Bridge.Publish(realtime.ChatRoom(conv.ID), "messages_read", fiber.Map{
			"conversation_id": conv.ID,
			"reader_id":       userID,
		})
	}
	return nil
}

// MarkAsRead is the explicit receipt endpoint.
func (h *ChatHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	conv, errResp := h.loadConversation(c, userID)
	if conv == nil {
		return errResp
	}

	if err := h.markRead(conv, userID); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to mark messages as read")
	}
	return c.JSON(fiber.Map{"success": true})
}

// validateAttachments enforces the whole-selection limit: more than
// maxAttachments rejects the entire send, no partial upload.
func validateAttachments(files []*multipart.FileHeader) error {
	if len(files) > maxAttachments {
		return fmt.Errorf("too many attachments (max %d)", maxAttachments)
	}
	for _, f := range files {
		if f.Size > maxAttachmentSize {
			return fmt.Errorf("attachment %s too large (max 10MB)", f.Filename)
		}
	}
	return nil
}

type attachmentInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// SendMessage accepts a JSON body for plain text, or multipart form data
// when attachments ride along. Both carry an optional metadata provenance
// blob from the sending client.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	conv, errResp := h.loadConversation(c, userID)
	if conv == nil {
		return errResp
	}

	var text, rawMetadata string
	var attachments []attachmentInfo

	if form, err := c.MultipartForm(); err == nil && form != nil {
		text = strings.TrimSpace(firstValue(form.Value["text"]))
		rawMetadata = firstValue(form.Value["metadata"])

		files := form.File["attachments"]
		if err := validateAttachments(files); err != nil {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}

		if len(files) > 0 {
			dir := filepath.Join(h.UploadDir, "attachments", conv.ID.String())
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fail(c, fiber.StatusInternalServerError, "failed to create upload directory")
			}
			for _, f := range files {
				filename := uuid.New().String() + strings.ToLower(filepath.Ext(f.Filename))
				if err := c.SaveFile(f, filepath.Join(dir, filename)); err != nil {
					return fail(c, fiber.StatusInternalServerError, "failed to save attachment")
				}
				attachments = append(attachments, attachmentInfo{
					Name: f.Filename,
					URL:  fmt.Sprintf("/uploads/attachments/%s/%s", conv.ID.String(), filename),
					Size: f.Size,
				})
			}
		}
	} else {
		var req struct {
			Text     string          `json:"text"`
			Metadata json.RawMessage `json:"metadata"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid body")
		}
		text = strings.TrimSpace(req.Text)
		rawMetadata = string(req.Metadata)
	}

	if text == "" && len(attachments) == 0 {
		return fail(c, fiber.StatusBadRequest, "text or attachments required")
	}

	metadata := buildMetadata(rawMetadata, userID, c.Get(fiber.HeaderUserAgent))

	msg := models.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		Type:           "text",
		Text:           text,
		Metadata:       metadata,
	}
	if len(attachments) > 0 {
		msg.Attachments = mustJSON(attachments)
	}

	if err := h.DB.Create(&msg).Error; err != nil {
		log.Println("error creating message:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to send message")
	}

	_ = h.DB.Model(&models.Conversation{}).
		Where("id = ?", conv.ID).
		Update("last_message_at", msg.CreatedAt).Error

	msgResp := toMessageResponse(&msg)

	h.Bridge.Publish(realtime.ChatRoom(conv.ID), "receive_message", msgResp)

	recipientID := conv.ClientID
	if userID == conv.ClientID {
		recipientID = conv.FreelancerID
	}
	h.Notifier.Push(recipientID, "new_message", "New message",
		truncate(text, 120),
		map[string]interface{}{"conversation_id": conv.ID.String(), "sender_id": userID.String()})

	return ok(c, msgResp)
}

func firstValue(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// truncate shortens a preview to n runes without splitting multibyte
// characters.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// buildMetadata keeps whatever the client sent and guarantees the sender id
// and a timestamp are present. Provenance only, nothing here is trusted.
func buildMetadata(raw string, senderID uuid.UUID, userAgent string) datatypes.JSON {
	meta := map[string]interface{}{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &meta)
	}
	if _, okTS := meta["client_timestamp"]; !okTS {
		meta["client_timestamp"] = time.Now().Format(time.RFC3339)
	}
	if _, okUA := meta["user_agent"]; !okUA && userAgent != "" {
		meta["user_agent"] = userAgent
	}
	meta["sender_id"] = senderID.String()

	out, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return datatypes.JSON(out)
}
