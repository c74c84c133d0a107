package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/dressrental/internal/domain"
	pkgkafka "github.com/utafrali/dressrental/pkg/kafka"
)

// Kafka topics owned by the storefront.
var (
	TopicDressCreated        = pkgkafka.Topic("dress", "created")
	TopicDressUpdated        = pkgkafka.Topic("dress", "updated")
	TopicDressDeleted        = pkgkafka.Topic("dress", "deleted")
	TopicWishlistItemAdded   = pkgkafka.Topic("wishlist", "item_added")
	TopicWishlistItemRemoved = pkgkafka.Topic("wishlist", "item_removed")
	TopicRentalCreated       = pkgkafka.Topic("rental", "created")
	TopicRentalStatusChanged = pkgkafka.Topic("rental", "status_changed")
	TopicSubscriptionCreated = pkgkafka.Topic("subscription", "created")
	TopicUserRegistered      = pkgkafka.Topic("user", "registered")
)

// Aggregate types.
const (
	AggregateTypeDress        = "dress"
	AggregateTypeWishlist     = "wishlist"
	AggregateTypeRental       = "rental"
	AggregateTypeSubscription = "subscription"
	AggregateTypeUser         = "user"
)

// SourceAPI identifies events emitted by the storefront API.
const SourceAPI = "dressrental-api"

// DressData is the payload of dress.created, dress.updated and dress.deleted.
type DressData struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Category  string   `json:"category"`
	Sizes     []string `json:"sizes"`
	Colors    []string `json:"colors"`
	Price     int64    `json:"price"`
	SalePrice *int64   `json:"sale_price,omitempty"`
	Available bool     `json:"available"`
	Featured  bool     `json:"featured"`
}

// Dress rebuilds the dress fields carried by the payload.
func (d DressData) Dress() domain.Dress {
	return domain.Dress{
		ID:        d.ID,
		Name:      d.Name,
		Slug:      d.Slug,
		Category:  d.Category,
		Sizes:     d.Sizes,
		Colors:    d.Colors,
		Price:     d.Price,
		SalePrice: d.SalePrice,
		Available: d.Available,
		Featured:  d.Featured,
	}
}

type WishlistItemData struct {
	UserID  string `json:"user_id"`
	DressID int64  `json:"dress_id"`
}

type RentalCreatedData struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	DressID    int64  `json:"dress_id"`
	Color      string `json:"color"`
	Size       string `json:"size"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Days       int    `json:"days"`
	TotalPrice int64  `json:"total_price"`
}

type RentalStatusChangedData struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

type SubscriptionData struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Categories []string `json:"categories"`
	Sizes      []string `json:"sizes"`
}

type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Producer publishes storefront domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishDressCreated publishes a dress.created event.
func (p *Producer) PublishDressCreated(ctx context.Context, d *domain.Dress) error {
	return p.publishDress(ctx, TopicDressCreated, d)
}

// PublishDressUpdated publishes a dress.updated event.
func (p *Producer) PublishDressUpdated(ctx context.Context, d *domain.Dress) error {
	return p.publishDress(ctx, TopicDressUpdated, d)
}

// PublishDressDeleted publishes a dress.deleted event.
func (p *Producer) PublishDressDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicDressDeleted, AggregateTypeDress, strconv.FormatInt(id, 10), DressData{ID: id})
}

func (p *Producer) publishDress(ctx context.Context, topic string, d *domain.Dress) error {
	data := DressData{
		ID:        d.ID,
		Name:      d.Name,
		Slug:      d.Slug,
		Category:  d.Category,
		Sizes:     d.Sizes,
		Colors:    d.Colors,
		Price:     d.Price,
		SalePrice: d.SalePrice,
		Available: d.Available,
		Featured:  d.Featured,
	}
	return p.publish(ctx, topic, AggregateTypeDress, strconv.FormatInt(d.ID, 10), data)
}

// PublishWishlistItemAdded publishes a wishlist.item_added event.
func (p *Producer) PublishWishlistItemAdded(ctx context.Context, userID string, dressID int64) error {
	return p.publish(ctx, TopicWishlistItemAdded, AggregateTypeWishlist, userID,
		WishlistItemData{UserID: userID, DressID: dressID})
}

// PublishWishlistItemRemoved publishes a wishlist.item_removed event.
func (p *Producer) PublishWishlistItemRemoved(ctx context.Context, userID string, dressID int64) error {
	return p.publish(ctx, TopicWishlistItemRemoved, AggregateTypeWishlist, userID,
		WishlistItemData{UserID: userID, DressID: dressID})
}

// PublishRentalCreated publishes a rental.created event.
func (p *Producer) PublishRentalCreated(ctx context.Context, r *domain.Rental) error {
	data := RentalCreatedData{
		ID:         r.ID,
		UserID:     r.UserID,
		DressID:    r.DressID,
		Color:      r.Color,
		Size:       r.Size,
		StartDate:  r.StartDate.Format("2006-01-02"),
		EndDate:    r.EndDate.Format("2006-01-02"),
		Days:       r.Days,
		TotalPrice: r.TotalPrice,
	}
	return p.publish(ctx, TopicRentalCreated, AggregateTypeRental, r.ID, data)
}

// PublishRentalStatusChanged publishes a rental.status_changed event.
func (p *Producer) PublishRentalStatusChanged(ctx context.Context, r *domain.Rental, oldStatus string) error {
	data := RentalStatusChangedData{
		ID:        r.ID,
		UserID:    r.UserID,
		OldStatus: oldStatus,
		NewStatus: r.Status,
	}
	return p.publish(ctx, TopicRentalStatusChanged, AggregateTypeRental, r.ID, data)
}

// PublishSubscriptionCreated publishes a subscription.created event.
func (p *Producer) PublishSubscriptionCreated(ctx context.Context, s *domain.Subscription) error {
	data := SubscriptionData{
		ID:         s.ID,
		Email:      s.Email,
		Categories: s.Categories,
		Sizes:      s.Sizes,
	}
	return p.publish(ctx, TopicSubscriptionCreated, AggregateTypeSubscription, s.ID, data)
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	data := UserRegisteredData{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
	return p.publish(ctx, TopicUserRegistered, AggregateTypeUser, u.ID, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(ctx, topic, aggregateType, aggregateID, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("event_id", event.EventID),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
