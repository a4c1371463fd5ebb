package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestFormatMessageMilestones(t *testing.T) {
	tests := []struct {
		name   string
		msg    string
		fields []zap.Field
		want   string
	}{
		{
			name: "license",
			msg:  "License validated",
			want: "License validated successfully",
		},
		{
			name:   "wallets loaded",
			msg:    "Wallets loaded",
			fields: []zap.Field{zap.Int("count", 16)},
			want:   "Loaded 16 wallets",
		},
		{
			name:   "submission",
			msg:    "sell submitted",
			fields: []zap.Field{zap.String("signature", "5Kq3WpTxJ9zR4vNcY8mD2hF6sLbA1eGuXoQ7iC9dPkVt")},
			want:   "5Kq3WpTx...iC9dPkVt",
		},
		{
			name: "tradable",
			msg:  "bonding curve tradable, first route obtained",
			want: "first sell route obtained",
		},
		{
			name: "unknown passes through",
			msg:  "balance read",
			want: "balance read",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMessage(tt.msg, tt.fields...)
			if !strings.Contains(got, tt.want) {
				t.Errorf("FormatMessage(%q) = %q, want it to contain %q", tt.msg, got, tt.want)
			}
		})
	}
}

func TestExtractFieldHandlesIntegers(t *testing.T) {
	fields := []zap.Field{zap.Int("count", 12), zap.String("mint", "9BB6")}

	if got := extractField(fields, "count"); got != "12" {
		t.Errorf("extractField(count) = %q, want 12", got)
	}
	if got := extractField(fields, "mint"); got != "9BB6" {
		t.Errorf("extractField(mint) = %q, want 9BB6", got)
	}
	if got := extractField(fields, "missing"); got != "" {
		t.Errorf("extractField(missing) = %q, want empty", got)
	}
}
