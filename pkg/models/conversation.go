package models

import "strings"

// DirectConversationID is the order-independent id of the conversation between two wallets.
func DirectConversationID(a, b string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + ":" + b
}

func NormalizeDirectMessage(msg DirectMessage) DirectMessage {
	msg.SenderWalletAddress = strings.TrimSpace(msg.SenderWalletAddress)
	msg.RecipientWalletAddress = strings.TrimSpace(msg.RecipientWalletAddress)
	msg.ConversationID = strings.TrimSpace(msg.ConversationID)
	if msg.ConversationID == "" {
		msg.ConversationID = DirectConversationID(msg.SenderWalletAddress, msg.RecipientWalletAddress)
	}
	// A record without an envelope cannot be encrypted, whatever the flag says.
	if msg.Envelope == nil {
		msg.IsEncrypted = false
	}
	if msg.IsEncrypted {
		msg.Content = ""
	}
	return msg
}

// Counterparty returns the other side of the conversation as seen from self.
func (m DirectMessage) Counterparty(self string) string {
	if strings.TrimSpace(self) == m.SenderWalletAddress {
		return m.RecipientWalletAddress
	}
	return m.SenderWalletAddress
}
