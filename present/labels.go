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

package present

import (
	"golang.org/x/text/language"

	"github.com/sunmery/tiktok-ecommerce-storefront/store"
)

var supported = []language.Tag{language.English, language.SimplifiedChinese}

var matcher = language.NewMatcher(supported)

var orderLabels = map[language.Tag]map[store.OrderStatus]string{
	language.English: {
		store.OrderPending:   "Pending payment",
		store.OrderPaid:      "Paid",
		store.OrderShipped:   "Shipped",
		store.OrderReceived:  "Received",
		store.OrderCompleted: "Completed",
		store.OrderCancelled: "Cancelled",
	},
	language.SimplifiedChinese: {
		store.OrderPending:   "待支付",
		store.OrderPaid:      "已支付",
		store.OrderShipped:   "已发货",
		store.OrderReceived:  "已收货",
		store.OrderCompleted: "已完成",
		store.OrderCancelled: "已取消",
	},
}

var paymentLabels = map[language.Tag]map[store.PaymentStatus]string{
	language.English: {
		store.PaymentNotPaid:    "Not paid",
		store.PaymentProcessing: "Processing",
		store.PaymentPaid:       "Paid",
		store.PaymentFailed:     "Failed",
		store.PaymentRefunded:   "Refunded",
	},
	language.SimplifiedChinese: {
		store.PaymentNotPaid:    "未支付",
		store.PaymentProcessing: "处理中",
		store.PaymentPaid:       "已支付",
		store.PaymentFailed:     "支付失败",
		store.PaymentRefunded:   "已退款",
	},
}

// Language picks the supported language closest to an Accept-Language
// style preference list. English is the fallback.
func Language(prefs ...string) language.Tag {
	tag, _ := language.MatchStrings(matcher, prefs...)
	base, _ := tag.Base()
	for _, s := range supported {
		if b, _ := s.Base(); b == base {
			return s
		}
	}
	return language.English
}

// OrderStatusLabel returns the display label of status; unknown statuses
// are shown as-is.
func OrderStatusLabel(status store.OrderStatus, lang language.Tag) string {
	if l, ok := orderLabels[lang][status]; ok {
		return l
	}
	return string(status)
}

func PaymentStatusLabel(status store.PaymentStatus, lang language.Tag) string {
	if l, ok := paymentLabels[lang][status]; ok {
		return l
	}
	return string(status)
}
