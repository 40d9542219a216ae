package ctxutil

import (
	"context"
	"testing"
)

func TestUserIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		if userID := GetUserID(ctx); userID != "" {
			t.Errorf("Expected empty string, got %s", userID)
		}
	})

	t.Run("with user ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedUserID := "1234567890"
		ctx = WithUserID(ctx, expectedUserID)
		userID := GetUserID(ctx)
		if userID != expectedUserID {
			t.Errorf("Expected userID %s, got %s", expectedUserID, userID)
		}
	})
}

func TestChatIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		if chatID := GetChatID(ctx); chatID != "" {
			t.Errorf("Expected empty string, got %s", chatID)
		}
	})

	t.Run("with chat ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedChatID := "-1001234567890"
		ctx = WithChatID(ctx, expectedChatID)
		chatID := GetChatID(ctx)
		if chatID != expectedChatID {
			t.Errorf("Expected chatID %s, got %s", expectedChatID, chatID)
		}
	})
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		if requestID, ok := GetRequestID(ctx); ok || requestID != "" {
			t.Error("Expected GetRequestID to return empty string and false for empty context")
		}
	})

	t.Run("with request ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedRequestID := "req-12345"
		ctx = WithRequestID(ctx, expectedRequestID)
		requestID, ok := GetRequestID(ctx)
		if !ok {
			t.Error("Expected GetRequestID to return true")
		}
		if requestID != expectedRequestID {
			t.Errorf("Expected requestID %s, got %s", expectedRequestID, requestID)
		}
	})
}

func TestContextChaining(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Chain multiple context values
	ctx = WithUserID(ctx, "123")
	ctx = WithChatID(ctx, "456")
	ctx = WithRequestID(ctx, "req-789")

	// Verify all values are preserved
	if userID := GetUserID(ctx); userID != "123" {
		t.Error("UserID not preserved in chained context")
	}
	if chatID := GetChatID(ctx); chatID != "456" {
		t.Error("ChatID not preserved in chained context")
	}
	if requestID, ok := GetRequestID(ctx); !ok || requestID != "req-789" {
		t.Error("RequestID not preserved in chained context")
	}
}
