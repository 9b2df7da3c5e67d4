package pricing

// ResolverPrecioBase decides the authoritative base price for a catalog entry.
// When the cliente has preciosmp enabled and an active convenio defines a
// price for the code, the convenio price wins; otherwise the master catalog
// price applies. A convenio price must be > 0 to apply; a zero entry falls
// through to the catalog price, so a genuinely free item cannot be expressed
// via convenio (kept as-is pending upstream confirmation).
func ResolverPrecioBase(codigo string, precioCatalogo float64, convenios map[string]float64, usarPreciosMp bool) float64 {
	if usarPreciosMp {
		if p, ok := convenios[codigo]; ok && p > 0 {
			return p
		}
	}
	if precioCatalogo > 0 {
		return precioCatalogo
	}
	return 0
}
