// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sunmery/tiktok-ecommerce-storefront/money"
	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
)

// CartItem is one cart line. A line is identified by (ProductID, MerchantID).
type CartItem struct {
	MerchantID string  `json:"merchantId"`
	ProductID  string  `json:"productId"`
	Quantity   int32   `json:"quantity"`
	Name       string  `json:"name"`
	Picture    string  `json:"picture"`
	Price      float64 `json:"price"`
	Selected   bool    `json:"selected,omitempty"`
}

type ItemKey struct {
	ProductID  string
	MerchantID string
}

func (i CartItem) Key() ItemKey {
	return ItemKey{ProductID: i.ProductID, MerchantID: i.MerchantID}
}

func (k ItemKey) String() string { return fmt.Sprintf("%s@%s", k.ProductID, k.MerchantID) }

// Cart is the local cart. Mutations cannot fail; each one persists the
// whole item list and notifies subscribers with a copy of it.
type Cart struct {
	mu       sync.RWMutex
	items    []CartItem
	stale    bool
	currency string

	storage storage.Storage
	log     logrus.FieldLogger
	subs    observers[[]CartItem]
}

func NewCart(s storage.Storage, log logrus.FieldLogger, currency string) *Cart {
	return &Cart{storage: s, log: log.WithField("store", KeyCart), currency: currency}
}

// Load replaces the in-memory items with what storage holds.
func (c *Cart) Load(ctx context.Context) error {
	var items []CartItem
	if err := hydrate(ctx, c.storage, KeyCart, &items); err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

func (c *Cart) Subscribe(fn func([]CartItem)) (unsubscribe func()) {
	return c.subs.add(fn)
}

func (c *Cart) mutate(fn func([]CartItem) []CartItem) {
	c.mu.Lock()
	c.items = fn(c.items)
	snapshot := c.snapshotLocked()
	persist(c.storage, c.log, KeyCart, snapshot)
	c.mu.Unlock()
	c.subs.notify(snapshot)
}

func (c *Cart) snapshotLocked() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func indexOf(items []CartItem, key ItemKey) int {
	for i := range items {
		if items[i].Key() == key {
			return i
		}
	}
	return -1
}

// AddItem merges item into the cart: an existing line with the same key has
// its quantity increased, otherwise a new selected line is appended. Adds
// of zero or fewer units change nothing; the validator bounds real adds to
// 1..99 before they reach the store.
func (c *Cart) AddItem(item CartItem) {
	if item.Quantity < 1 {
		return
	}
	c.mutate(func(items []CartItem) []CartItem {
		if i := indexOf(items, item.Key()); i >= 0 {
			items[i].Quantity += item.Quantity
			return items
		}
		item.Selected = true
		return append(items, item)
	})
}

func (c *Cart) RemoveItem(key ItemKey) {
	c.mutate(func(items []CartItem) []CartItem {
		if i := indexOf(items, key); i >= 0 {
			return append(items[:i], items[i+1:]...)
		}
		return items
	})
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (c *Cart) UpdateQuantity(key ItemKey, quantity int32) {
	c.mutate(func(items []CartItem) []CartItem {
		i := indexOf(items, key)
		switch {
		case i < 0:
		case quantity <= 0:
			items = append(items[:i], items[i+1:]...)
		default:
			items[i].Quantity = quantity
		}
		return items
	})
}

func (c *Cart) ToggleSelected(key ItemKey) {
	c.mutate(func(items []CartItem) []CartItem {
		if i := indexOf(items, key); i >= 0 {
			items[i].Selected = !items[i].Selected
		}
		return items
	})
}

func (c *Cart) SelectAll(selected bool) {
	c.mutate(func(items []CartItem) []CartItem {
		for i := range items {
			items[i].Selected = selected
		}
		return items
	})
}

// RemoveSelected drops the selected lines, as after a completed checkout.
func (c *Cart) RemoveSelected() {
	c.mutate(func(items []CartItem) []CartItem {
		kept := items[:0]
		for _, it := range items {
			if !it.Selected {
				kept = append(kept, it)
			}
		}
		return kept
	})
}

func (c *Cart) Clear() {
	c.mutate(func([]CartItem) []CartItem { return []CartItem{} })
}

// Replace installs the server's view of the cart. Selection is local state
// the server does not know about, so it is carried over for lines that
// survive.
func (c *Cart) Replace(items []CartItem) {
	c.mutate(func(old []CartItem) []CartItem {
		selected := make(map[ItemKey]bool, len(old))
		for _, it := range old {
			selected[it.Key()] = it.Selected
		}
		out := make([]CartItem, len(items))
		for i, it := range items {
			if s, ok := selected[it.Key()]; ok {
				it.Selected = s
			} else {
				it.Selected = true
			}
			out[i] = it
		}
		c.stale = false
		return out
	})
}

// MarkStale records that local and server state may have diverged.
func (c *Cart) MarkStale() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

func (c *Cart) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

func (c *Cart) Items() []CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Cart) Item(key ItemKey) (CartItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOf(c.items, key); i >= 0 {
		return c.items[i], true
	}
	return CartItem{}, false
}

func (c *Cart) SelectedItems() []CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []CartItem
	for _, it := range c.items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

func (c *Cart) Currency() string { return c.currency }

// TotalPrice is the sum of price × quantity over every line.
func (c *Cart) TotalPrice() money.Money {
	return c.total(func(CartItem) bool { return true })
}

// SelectedTotal is TotalPrice restricted to selected lines.
func (c *Cart) SelectedTotal() money.Money {
	return c.total(func(it CartItem) bool { return it.Selected })
}

func (c *Cart) total(include func(CartItem) bool) money.Money {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sum := money.Money{CurrencyCode: c.currency}
	for _, it := range c.items {
		if !include(it) {
			continue
		}
		line := money.Multiply(money.FromFloat(c.currency, it.Price), int64(it.Quantity))
		sum = money.Must(money.Sum(sum, line))
	}
	return sum
}

// Count is the number of distinct lines.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// TotalQuantity is the number of units across all lines.
func (c *Cart) TotalQuantity() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, it := range c.items {
		n += int(it.Quantity)
	}
	return n
}

func (c *Cart) SelectedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, it := range c.items {
		if it.Selected {
			n++
		}
	}
	return n
}

// AllSelected reports whether every line is selected; an empty cart is not.
func (c *Cart) AllSelected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		return false
	}
	for _, it := range c.items {
		if !it.Selected {
			return false
		}
	}
	return true
}
