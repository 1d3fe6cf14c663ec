package capability

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"CPU (ONNX)":  "cpu_onnx",
		"  gpu  ":     "gpu",
		"GPU":         "gpu",
		"Neural Engine (ANE)": "neural_engine_ane",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	got := NormalizeAll([]string{"GPU", "CPU (ONNX)", "npu"})
	want := []string{"gpu", "cpu_onnx", "npu"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNormalize_RegistrationAndDispatchAgree(t *testing.T) {
	registered := Normalize("CPU (ONNX)")
	dispatched := Normalize("cpu_onnx")
	if registered != dispatched {
		t.Fatalf("expected registration tag and dispatch tag to normalize identically, got %q vs %q", registered, dispatched)
	}
}
