package delivery

import (
	"github.com/akulagin/fulfillment/internal/domain/shipment"
	"github.com/akulagin/fulfillment/internal/events"
)

func addressFromEvent(event events.OrderPaid) shipment.Address {
	return shipment.Address{
		Street:  event.Street,
		City:    event.City,
		State:   event.State,
		Country: event.Country,
		ZipCode: event.ZipCode,
	}
}
