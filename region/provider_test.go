package region

import "testing"

// providerFactories lists every Provider implementation this package
// ships, so the contract test below runs identically against each.
func providerFactories() map[string]func() Provider {
	factories := map[string]func() Provider{
		"memory": func() Provider { return NewMemoryProvider() },
	}
	factories["posix"] = func() Provider { return &POSIXProvider{} }
	return factories
}

func TestProvider_SecondOpenAttachesByteIdentical(t *testing.T) {
	for name, newProvider := range providerFactories() {
		t.Run(name, func(t *testing.T) {
			p := newProvider()
			regionName := "shmtab-contract-" + name

			data1, created1, err := p.Open(regionName, 32)
			if err != nil {
				t.Skipf("provider %s unavailable: %v", name, err)
			}
			defer p.Remove(regionName)
			if !created1 {
				t.Fatalf("first Open reported created=false")
			}
			for i := range data1 {
				data1[i] = byte(i)
			}
			p.Close(data1)

			data2, created2, err := p.Open(regionName, 32)
			if err != nil {
				t.Fatalf("second Open: %v", err)
			}
			if created2 {
				t.Fatalf("second Open reported created=true")
			}
			for i := range data2 {
				if data2[i] != byte(i) {
					t.Fatalf("byte %d = %d, want %d", i, data2[i], byte(i))
				}
			}
			p.Close(data2)
		})
	}
}
