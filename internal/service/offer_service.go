package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/straye-as/minicrm/internal/domain"
	"go.uber.org/zap"
)

// AddOfferToCustomer appends a new offer in status "created"
func (s *RecordStore) AddOfferToCustomer(ctx context.Context, customerID string, req *domain.CreateOfferRequest) (*domain.Offer, error) {
	if err := s.validateRequest(req); err != nil {
		s.observer.Observe("add_offer", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offer := domain.Offer{
		ID:           s.ids.NewID(domain.PrefixOffer),
		Status:       domain.OfferStatusCreated,
		CreatedAt:    s.now().UTC(),
		Paket:        req.Paket,
		Preis:        req.Preis,
		ZahlplanText: req.ZahlplanText,
	}
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		c.Offers = append(c.Offers, offer)
		s.appendHistory(c, domain.HistoryTypeSystem,
			fmt.Sprintf("Offer created (%s, %s€)", orDash(offer.Paket), formatPrice(offer.Preis)))
		return nil
	})
	s.observer.Observe("add_offer", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer created",
		zap.String("customer_id", customerID),
		zap.String("offer_id", offer.ID),
		zap.String("paket", offer.Paket),
	)
	return &offer, nil
}

// SetOfferAccepted marks an offer as signed and stores the signature
func (s *RecordStore) SetOfferAccepted(ctx context.Context, customerID, offerID, signature string) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accepted domain.Offer
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		off := findOffer(c, offerID)
		if off == nil {
			return ErrOfferNotFound
		}
		now := s.now().UTC()
		off.Status = domain.OfferStatusAccepted
		off.AcceptedAt = &now
		off.Signature = optionalString(signature)

		paket := ""
		if off.Paket != "" {
			paket = " (" + off.Paket + ")"
		}
		s.appendHistory(c, domain.HistoryTypeMilestone, fmt.Sprintf("Offer%s signed", paket))
		accepted = *off
		return nil
	})
	s.observer.Observe("accept_offer", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer accepted",
		zap.String("customer_id", customerID),
		zap.String("offer_id", offerID),
	)
	return &accepted, nil
}

func findOffer(c *domain.Customer, offerID string) *domain.Offer {
	for i := range c.Offers {
		if c.Offers[i].ID == offerID {
			return &c.Offers[i]
		}
	}
	return nil
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
