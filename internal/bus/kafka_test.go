package bus

import (
	"context"
	"testing"
)

// TestKafkaConfig_Validation tests configuration validation.
func TestKafkaConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     KafkaConfig
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: KafkaConfig{
				Brokers:       []string{"localhost:9092"},
				ConsumerGroup: "test-group",
			},
			wantErr: false,
		},
		{
			name: "empty brokers",
			cfg: KafkaConfig{
				Brokers:       []string{},
				ConsumerGroup: "test-group",
			},
			wantErr: true,
		},
		{
			name: "empty consumer group",
			cfg: KafkaConfig{
				Brokers:       []string{"localhost:9092"},
				ConsumerGroup: "",
			},
			wantErr: true,
		},
		{
			name: "invalid kafka version",
			cfg: KafkaConfig{
				Brokers:       []string{"localhost:9092"},
				ConsumerGroup: "test-group",
				Version:       "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKafkaBus(tt.cfg)
			if (err != nil) != tt.wantErr {
				// Skip the test if Kafka is not running (only for valid config test)
				if tt.name == "valid config" && err != nil {
					t.Skip("Skipping test - Kafka not running")
					return
				}
				t.Errorf("NewKafkaBus() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestParseKafkaBrokers tests broker string parsing.
func TestParseKafkaBrokers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single broker",
			input: "localhost:9092",
			want:  []string{"localhost:9092"},
		},
		{
			name:  "multiple brokers",
			input: "broker1:9092,broker2:9092,broker3:9092",
			want:  []string{"broker1:9092", "broker2:9092", "broker3:9092"},
		},
		{
			name:  "with whitespace",
			input: "broker1:9092 , broker2:9092 , broker3:9092",
			want:  []string{"broker1:9092", "broker2:9092", "broker3:9092"},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKafkaBrokers(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("ParseKafkaBrokers() = %v, want %v", got, tt.want)
				return
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseKafkaBrokers()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestKafkaBus_Interface verifies KafkaBus implements Bus interface.
func TestKafkaBus_Interface(t *testing.T) {
	var _ Bus = (*KafkaBus)(nil) // Compile-time interface check
}

// TestKafkaBus_CloseIdempotent tests that Close() can be called multiple times safely.
func TestKafkaBus_CloseIdempotent(t *testing.T) {
	bus := &KafkaBus{
		handlers:     make(map[string][]Handler),
		consumerStop: make(chan struct{}),
		closed:       false,
	}

	// First close
	bus.mu.Lock()
	bus.closed = true
	bus.mu.Unlock()

	// Second close should return immediately without error
	if err := bus.Close(); err != nil {
		t.Errorf("Second Close() returned error: %v", err)
	}
}

// TestKafkaBus_PublishAfterClose tests that operations fail after Close().
func TestKafkaBus_PublishAfterClose(t *testing.T) {
	bus := &KafkaBus{
		handlers:     make(map[string][]Handler),
		consumerStop: make(chan struct{}),
		closed:       true, // Pre-closed
	}

	err := bus.Publish(context.Background(), "test", Event{ID: "test"})
	if err == nil {
		t.Error("Publish() after Close() should return error")
	}
}
