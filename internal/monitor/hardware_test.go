package monitor

import (
	"context"
	"testing"
)

func TestHardwareReadAndroid(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sys/devices/system/cpu/present", "0-7\n")
	writeFile(t, root, "proc/meminfo", "MemTotal: 8388608 kB\nMemAvailable: 4194304 kB\n")

	props := androidProps(map[string]string{
		"ro.product.model":        "Pixel 8",
		"ro.product.manufacturer": "Google",
		"ro.product.brand":        "google",
		"ro.product.board":        "shiba",
		"ro.product.cpu.abi":      "arm64-v8a",
	})
	got := NewHardwareReader(newTestDevice(root, props, nil), "", "").Read(context.Background())

	checks := map[string][2]string{
		"Model":           {got.Model, "Pixel 8"},
		"Manufacturer":    {got.Manufacturer, "Google"},
		"Brand":           {got.Brand, "google"},
		"Board":           {got.Board, "shiba"},
		"Architecture":    {got.Architecture, "64-bit (arm64-v8a)"},
		"ABI":             {got.ABI, "arm64-v8a"},
		"Cores":           {got.Cores, "8"},
		"RAMTotal":        {got.RAMTotal, "8 GB"},
		"RAMAvailable":    {got.RAMAvailable, "4 GB"},
		"RAMUsed":         {got.RAMUsed, "4 GB"},
		"ExternalStorage": {got.ExternalStorage, NotAvailable},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", field, c[0], c[1])
		}
	}
}

func TestHardwareReadDMI(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sys/devices/virtual/dmi/id/product_name", "ThinkPad X1 Carbon\n")
	writeFile(t, root, "sys/devices/virtual/dmi/id/sys_vendor", "LENOVO\n")
	writeFile(t, root, "sys/devices/virtual/dmi/id/board_name", "20XW\n")

	got := NewHardwareReader(newTestDevice(root, nil, nil), "", "").Read(context.Background())
	if got.Model != "ThinkPad X1 Carbon" || got.Manufacturer != "LENOVO" || got.Board != "20XW" {
		t.Errorf("DMI fields = %q, %q, %q", got.Model, got.Manufacturer, got.Board)
	}
	// No uname, no props, no meminfo: placeholders.
	for field, v := range map[string]string{
		"Brand":        got.Brand,
		"Architecture": got.Architecture,
		"ABI":          got.ABI,
		"Cores":        got.Cores,
		"RAMTotal":     got.RAMTotal,
	} {
		if v != Unknown {
			t.Errorf("%s = %q, want %q", field, v, Unknown)
		}
	}
}

func TestHardwareDeviceTreeModel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proc/device-tree/model", "Raspberry Pi 4 Model B Rev 1.4\x00")

	got := NewHardwareReader(newTestDevice(root, nil, nil), "", "").Read(context.Background())
	if got.Model != "Raspberry Pi 4 Model B Rev 1.4" {
		t.Errorf("Model = %q", got.Model)
	}
}

func TestArchitecture(t *testing.T) {
	tests := map[string]string{
		"arm64-v8a":   "64-bit (arm64-v8a)",
		"x86_64":      "64-bit (x86_64)",
		"armeabi-v7a": "32-bit (armeabi-v7a)",
		"i686":        "32-bit (i686)",
		"":            "",
	}
	for in, want := range tests {
		if got := Architecture(in); got != want {
			t.Errorf("Architecture(%q) = %q, want %q", in, got, want)
		}
	}
}
