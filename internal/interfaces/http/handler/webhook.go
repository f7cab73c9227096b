package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	webhookapp "github.com/inkwell/backend/internal/application/webhook"
	"github.com/inkwell/backend/internal/domain/webhook"
	"github.com/inkwell/backend/internal/interfaces/http/dto"
)

// WebhookHandler handles webhook subscription and delivery endpoints
type WebhookHandler struct {
	BaseHandler
	subscriptionService *webhookapp.SubscriptionService
	dispatcher          *webhookapp.Dispatcher
	subRepo             webhook.SubscriptionRepository
	deliveryRepo        webhook.DeliveryRepository
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	subscriptionService *webhookapp.SubscriptionService,
	dispatcher *webhookapp.Dispatcher,
	subRepo webhook.SubscriptionRepository,
	deliveryRepo webhook.DeliveryRepository,
) *WebhookHandler {
	return &WebhookHandler{
		subscriptionService: subscriptionService,
		dispatcher:          dispatcher,
		subRepo:             subRepo,
		deliveryRepo:        deliveryRepo,
	}
}

// CreateSubscriptionRequest is the request body for registering an endpoint.
// An empty event_types list subscribes to every event.
type CreateSubscriptionRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=200"`
	EndpointURL string   `json:"endpoint_url" binding:"required,url"`
	EventTypes  []string `json:"event_types"`
}

// SubscriptionResponse is the wire representation of a subscription
type SubscriptionResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	EndpointURL     string     `json:"endpoint_url"`
	EventTypes      []string   `json:"event_types"`
	Status          string     `json:"status"`
	ConsecutiveFail int        `json:"consecutive_failures"`
	DisabledAt      *time.Time `json:"disabled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DeliveryResponse is the wire representation of an outbound delivery
type DeliveryResponse struct {
	ID             uuid.UUID  `json:"id"`
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	EventType      string     `json:"event_type"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	LastStatusCode int        `json:"last_status_code,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	NextAttemptAt  *time.Time `json:"next_attempt_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toSubscriptionResponse(sub *webhook.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:              sub.ID,
		Name:            sub.Name,
		EndpointURL:     sub.EndpointURL,
		EventTypes:      sub.EventTypes,
		Status:          string(sub.Status),
		ConsecutiveFail: sub.ConsecutiveFail,
		DisabledAt:      sub.DisabledAt,
		CreatedAt:       sub.CreatedAt,
	}
}

func toDeliveryResponse(d *webhook.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:             d.ID,
		SubscriptionID: d.SubscriptionID,
		EventType:      d.EventType,
		Status:         string(d.Status),
		Attempts:       d.Attempts,
		LastStatusCode: d.LastStatusCode,
		LastError:      d.LastError,
		NextAttemptAt:  d.NextAttemptAt,
		DeliveredAt:    d.DeliveredAt,
		CreatedAt:      d.CreatedAt,
	}
}

// CreateSubscription registers a webhook endpoint
func (h *WebhookHandler) CreateSubscription(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sub, err := h.subscriptionService.CreateSubscription(c.Request.Context(), webhookapp.CreateSubscriptionRequest{
		TenantID:    tenantID,
		Name:        req.Name,
		EndpointURL: req.EndpointURL,
		EventTypes:  webhook.EventTypes(req.EventTypes),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toSubscriptionResponse(sub))
}

// ListSubscriptions returns the tenant's subscriptions
func (h *WebhookHandler) ListSubscriptions(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	subs, err := h.subRepo.FindAllForTenant(c.Request.Context(), tenantID, listReq.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		responses = append(responses, toSubscriptionResponse(&subs[i]))
	}
	h.Success(c, responses)
}

// GetSubscription returns a single subscription
func (h *WebhookHandler) GetSubscription(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	sub, err := h.subRepo.FindByIDForTenant(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSubscriptionResponse(sub))
}

// EnableSubscription re-enables a disabled subscription and resets its
// failure streak
func (h *WebhookHandler) EnableSubscription(c *gin.Context) {
	h.toggleSubscription(c, true)
}

// DisableSubscription stops deliveries to a subscription
func (h *WebhookHandler) DisableSubscription(c *gin.Context) {
	h.toggleSubscription(c, false)
}

func (h *WebhookHandler) toggleSubscription(c *gin.Context, enable bool) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	var sub *webhook.Subscription
	if enable {
		sub, err = h.subscriptionService.EnableSubscription(c.Request.Context(), tenantID, id)
	} else {
		sub, err = h.subscriptionService.DisableSubscription(c.Request.Context(), tenantID, id)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSubscriptionResponse(sub))
}

// TestSubscription queues a single test delivery so the endpoint owner can
// verify reachability and signature handling. The delivery goes through the
// normal retry pipeline.
func (h *WebhookHandler) TestSubscription(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	delivery, err := h.dispatcher.DispatchTest(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toDeliveryResponse(delivery))
}

// VerifyInbound checks the signature of an inbound payload against the
// subscription's derived key. Receivers use this to validate third-party
// webhooks signed with the same scheme before acting on them. The raw body
// is the signed payload; the signature travels in the usual header.
func (h *WebhookHandler) VerifyInbound(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return
	}

	signature := c.GetHeader(webhook.SignatureHeader)
	if signature == "" {
		h.BadRequest(c, "Missing "+webhook.SignatureHeader+" header")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	valid, err := h.dispatcher.VerifyInbound(c.Request.Context(), tenantID, id, payload, signature)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"valid": valid})
}

// ListDeliveries returns the tenant's outbound deliveries
func (h *WebhookHandler) ListDeliveries(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	filter := listReq.ToFilter()
	filters := map[string]interface{}{}
	if subID := c.Query("subscription_id"); subID != "" {
		filters["subscription_id"] = subID
	}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if len(filters) > 0 {
		filter.Filters = filters
	}

	deliveries, err := h.deliveryRepo.FindAllForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		responses = append(responses, toDeliveryResponse(&deliveries[i]))
	}
	h.Success(c, responses)
}

// RegisterRoutes mounts the webhook endpoints
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/subscriptions", h.CreateSubscription)
		webhooks.GET("/subscriptions", h.ListSubscriptions)
		webhooks.GET("/subscriptions/:id", h.GetSubscription)
		webhooks.POST("/subscriptions/:id/enable", h.EnableSubscription)
		webhooks.POST("/subscriptions/:id/disable", h.DisableSubscription)
		webhooks.POST("/subscriptions/:id/test", h.TestSubscription)
		webhooks.POST("/subscriptions/:id/verify", h.VerifyInbound)
		webhooks.GET("/deliveries", h.ListDeliveries)
	}
}
