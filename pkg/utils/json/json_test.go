package json

import (
	"bytes"
	stdjson "encoding/json"
	"strings"
	"sync"
	"testing"
)

type simpleStruct struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type responseStruct struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
	List    []string               `json:"list,omitempty"`
}

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		data interface{}
	}{
		{
			name: "simple struct",
			data: simpleStruct{ID: 1, Name: "test", Message: "hello world"},
		},
		{
			name: "map with mixed types",
			data: map[string]interface{}{
				"code":    0,
				"message": "success",
				"data": map[string]interface{}{
					"id":   123,
					"tags": []string{"a", "b", "c"},
				},
			},
		},
		{
			name: "response struct",
			data: responseStruct{
				Code:    0,
				Message: "success",
				Data:    map[string]interface{}{"id": 123},
				List:    []string{"item1", "item2"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.data)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			// Cross-check validity with the standard library.
			var result interface{}
			if err := stdjson.Unmarshal(got, &result); err != nil {
				t.Errorf("Marshal() produced invalid JSON: %v", err)
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		target  interface{}
		wantErr bool
	}{
		{
			name:   "simple struct",
			json:   `{"id":1,"name":"test","message":"hello"}`,
			target: &simpleStruct{},
		},
		{
			name:   "response struct",
			json:   `{"code":0,"message":"success","data":{"id":123}}`,
			target: &responseStruct{},
		},
		{
			name:    "invalid json",
			json:    `{invalid}`,
			target:  &simpleStruct{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal([]byte(tt.json), tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncoderDecoderRoundtrip(t *testing.T) {
	data := simpleStruct{ID: 1, Name: "test", Message: "hello"}

	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(data); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var result simpleStruct
	if err := NewDecoder(strings.NewReader(buf.String())).Decode(&result); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if result.ID != data.ID || result.Name != data.Name {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", result, data)
	}
}

func TestIsUsingSonic(t *testing.T) {
	t.Logf("using sonic: %v", IsUsingSonic())
}

func TestConcurrentMarshalUnmarshal(t *testing.T) {
	const goroutines = 100
	const iterations = 100

	data := simpleStruct{ID: 1, Name: "test", Message: "hello"}

	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				encoded, err := Marshal(data)
				if err != nil {
					errCh <- err
					return
				}

				var result simpleStruct
				if err := Unmarshal(encoded, &result); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent marshal/unmarshal failed: %v", err)
	}
}

func BenchmarkMarshal(b *testing.B) {
	data := responseStruct{
		Code:    0,
		Message: "success",
		Data:    map[string]interface{}{"id": 12345, "name": "advisor", "active": true},
		List:    []string{"a", "b", "c", "d", "e"},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Marshal(data)
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	encoded, _ := Marshal(responseStruct{Code: 0, Message: "success", List: []string{"a", "b"}})
	var result responseStruct
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Unmarshal(encoded, &result)
	}
}
