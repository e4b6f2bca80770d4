package service

import "github.com/prometheus/client_golang/prometheus"

var (
	itemsAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wishlist_items_added_total",
		Help: "Total number of items added to wishlists",
	})

	itemsRemovedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wishlist_items_removed_total",
		Help: "Total number of items removed from wishlists",
	})

	duplicateAddsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wishlist_duplicate_adds_total",
		Help: "Total number of add requests for items already in the wishlist",
	})

	limitExceededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wishlist_limit_exceeded_total",
		Help: "Total number of add requests rejected because the wishlist was full",
	})
)

func init() {
	prometheus.MustRegister(itemsAddedTotal, itemsRemovedTotal, duplicateAddsTotal, limitExceededTotal)
}
