package conversation

import (
	"fmt"
	"strings"

	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

// Callback action tokens.
const (
	ActionMainMenu        = "main_menu"
	ActionBalance         = "balance"
	ActionPrices          = "prices"
	ActionOrder           = "order"
	ActionTopUp           = "topup"
	ActionTopUpConfirm    = "topup_confirm"
	ActionContact         = "contact"
	ActionAdminReply      = "admin_reply"
	ActionCategoryPrefix  = "cat_"
	ActionSetPricePrefix  = "set_price_"
	ActionOrderDonePrefix = "order_done_"
)

const (
	textWelcome  = "Welcome! Here you can buy likes, followers and views for TikTok, Instagram and Telegram.\n\nChoose an option below."
	textMainMenu = "Main menu"

	textChooseCategory = "Choose a platform:"
	textCategoryNeeded = "Choose a platform first, then send your request again."

	textTopUpReceiptPrompt = "Send a photo of the payment receipt."
	textTopUpReceiptSent   = "Receipt sent. Your balance will be credited once the administrator confirms the payment."
	textTopUpRetry         = "The receipt could not be delivered to the administrator. Please send the photo again."

	textContactPrompt = "Write your message and it will be forwarded to the administrator."
	textContactSent   = "Your message was sent to the administrator."

	textLinkInvalid = "That link is not valid for this service. Send a link to a %s post, profile or channel."
	textLinkPhoto   = "Send the link as a text message."

	textUnrecognized = "Unrecognized format. Send a request like \"3k like\" or \"500 follower\", or use the menu."
	textAdminHint    = "Unrecognized input. Reply to a relayed message to answer a user, or use /orders, /add, /done, /get_balance, /set_price."
	textPhotoIdle    = "To top up your balance press \"Top up\" in the main menu first."

	textNotAuthorized  = "You are not authorized to use this command."
	textUnknownCommand = "Unknown command. Use /start to open the main menu."
	textUnknownAction  = "This button is no longer available."

	textReplyPrompt    = "Write the reply for user %d."
	textReplyTextOnly  = "Only text replies are supported. Write the reply."
	textReplySent      = "Reply sent to user %d."
	textMappingMissing = "Cannot find the user this message came from."

	textPriceChooseService = "Choose the service to change the price for:"
	textPriceChooseHint    = "Press one of the service buttons above."
	textPriceStartFirst    = "Start the price change with /set_price."
	textPriceAmountPrompt  = "Current price for %s: %s per 1000. Send the new price."
	textPriceInvalid       = "Invalid price, it must be a positive number. Start again with /set_price."
	textPriceUpdated       = "Price for %s set to %s per 1000."

	textApology = "Something went wrong while handling your request (ref %s). Please start again from the main menu."

	textUsageAdd        = "Usage: /add <user_id> <amount>"
	textUsageDone       = "Usage: /done <order_id>"
	textUsageGetBalance = "Usage: /get_balance <user_id>"
	textInvalidAmount   = "The amount must be a positive number."
	textOrderNotFound   = "Order #%d not found."
	textAlreadyDone     = "Order #%d is already completed."
	textNoOrders        = "No orders yet."
)

var platformControls = func() []Control {
	controls := make([]Control, 0, len(domain.Platforms))
	for _, p := range domain.Platforms {
		controls = append(controls, Control{Text: p.Title(), Action: ActionCategoryPrefix + string(p)})
	}
	return controls
}()

var backControl = Control{Text: "« Main menu", Action: ActionMainMenu}

func mainMenuControls() [][]Control {
	return [][]Control{
		{{Text: "🛒 Order", Action: ActionOrder}, {Text: "💰 Balance", Action: ActionBalance}},
		{{Text: "💳 Top up", Action: ActionTopUp}, {Text: "📋 Prices", Action: ActionPrices}},
		{{Text: "✉️ Contact admin", Action: ActionContact}},
	}
}

func categoryMenu(text string) Message {
	return Message{Text: text, Controls: [][]Control{platformControls, {backControl}}}
}

func backOnly(text string) Message {
	return Message{Text: text, Controls: [][]Control{{backControl}}}
}

func (m *Machine) money(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + m.opts.Currency
}

func formatPrice(price decimal.Decimal) string {
	if price.Equal(price.Round(2)) {
		return price.StringFixed(2)
	}
	return price.String()
}

func serviceTitle(serviceID string) string {
	platform, kind, ok := strings.Cut(serviceID, "_")
	if !ok {
		return serviceID
	}
	return domain.ParsePlatform(platform).Title() + " " + kind + "s"
}

func (m *Machine) priceList(services []domain.Service) string {
	var b strings.Builder
	b.WriteString("Prices per 1000:\n")
	current := domain.PlatformNone
	for _, svc := range services {
		if p := svc.Platform(); p != current {
			current = p
			fmt.Fprintf(&b, "\n%s\n", p.Title())
		}
		fmt.Fprintf(&b, "• %s: %s %s\n", serviceTitle(svc.ID), formatPrice(svc.PricePerThousand), m.opts.Currency)
	}
	return b.String()
}

func (m *Machine) categoryText(p domain.Platform, services []domain.Service) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s selected.\n\n", p.Title())
	for _, svc := range services {
		fmt.Fprintf(&b, "• %s: %s %s per 1000\n", serviceTitle(svc.ID), formatPrice(svc.PricePerThousand), m.opts.Currency)
	}
	if p == domain.PlatformTelegram {
		b.WriteString("\nSend your request, for example \"1k abuneci\" or \"500 view\".")
	} else {
		b.WriteString("\nSend your request, for example \"3k like\" or \"500 follower\".")
	}
	return b.String()
}

func (m *Machine) topUpText() string {
	var b strings.Builder
	b.WriteString("To top up your balance transfer the amount to the card below, then press \"I have paid\" and send a photo of the receipt.\n")
	if m.opts.PaymentCard != "" {
		fmt.Fprintf(&b, "\nCard: %s", m.opts.PaymentCard)
	}
	if m.opts.PaymentHolder != "" {
		fmt.Fprintf(&b, "\nHolder: %s", m.opts.PaymentHolder)
	}
	return b.String()
}

func (m *Machine) shortfallText(ibe *domain.InsufficientBalanceError) string {
	return fmt.Sprintf("Insufficient balance. The order costs %s, your balance is %s. Top up at least %s.",
		m.money(ibe.Required), m.money(ibe.Available), m.money(ibe.Shortfall()))
}

func (m *Machine) quoteText(d *domain.DraftOrder) string {
	return fmt.Sprintf("%d %s will cost %s.\n\nSend the link to the %s post, profile or channel.",
		d.Quantity, serviceTitle(d.ServiceID), m.money(d.Cost), domain.ServicePlatform(d.ServiceID).Title())
}

func (m *Machine) orderPlacedText(o *domain.Order, balance decimal.Decimal) string {
	return fmt.Sprintf("Order #%d placed: %d %s for %s.\nLink: %s\nBalance: %s",
		o.ID, o.Quantity, serviceTitle(o.ServiceID), m.money(o.Cost), o.Link, m.money(balance))
}

func (m *Machine) adminOrderText(o *domain.Order, ev Event) string {
	return fmt.Sprintf("🆕 New order #%d\nUser: %s\nService: %s\nQuantity: %d\nCost: %s\nLink: %s\n\nComplete with /done %d",
		o.ID, userLabel(ev), o.ServiceID, o.Quantity, m.money(o.Cost), o.Link, o.ID)
}

func orderDoneText(o *domain.Order) string {
	return fmt.Sprintf("✅ Your order #%d (%d %s) is completed.", o.ID, o.Quantity, serviceTitle(o.ServiceID))
}

func (m *Machine) ordersText(orders []domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Orders (%d):\n", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "\n#%d [%s] user %d: %d %s, %s, %s\n%s\n",
			o.ID, o.Status, o.UserID, o.Quantity, o.ServiceID, m.money(o.Cost),
			o.CreatedAt.Format("2006-01-02 15:04"), o.Link)
	}
	return b.String()
}

func relayText(ev Event) string {
	return fmt.Sprintf("✉️ Message from %s:\n\n%s", userLabel(ev), ev.Text)
}

func receiptCaption(ev Event) string {
	return fmt.Sprintf("🧾 Top-up receipt from %s\nCredit with /add %d <amount>", userLabel(ev), ev.UserID)
}

func userLabel(ev Event) string {
	switch {
	case ev.Username != "":
		return fmt.Sprintf("@%s (id %d)", ev.Username, ev.UserID)
	case ev.FirstName != "":
		return fmt.Sprintf("%s (id %d)", ev.FirstName, ev.UserID)
	default:
		return fmt.Sprintf("id %d", ev.UserID)
	}
}

func deliveryWarning(userID int64) string {
	return fmt.Sprintf("⚠️ Could not notify user %d, they may have blocked the bot.", userID)
}
