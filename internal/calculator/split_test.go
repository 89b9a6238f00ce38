package calculator

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hppanpaliya/FairShare-AI/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func claim(personID, qty string) models.Claim {
	return models.Claim{PersonID: personID, Quantity: d(qty)}
}

func item(id, qty, unit, total string, claims ...models.Claim) models.Item {
	return models.Item{ID: id, Name: id, Quantity: d(qty), UnitPrice: d(unit), TotalPrice: d(total), Claims: claims}
}

func people(ids ...string) []models.Person {
	out := make([]models.Person, len(ids))
	for i, id := range ids {
		out[i] = models.Person{ID: id, Name: id}
	}
	return out
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name         string
		items        []models.Item
		people       []models.Person
		policy       Policy
		validateFunc func(t *testing.T, res *Result)
	}{
		{
			name: "pizza and soda with equal tax",
			items: []models.Item{
				item("pizza", "1", "20", "20", claim("alice", "1")),
				item("soda", "2", "3", "6", claim("bob", "2")),
			},
			people: people("alice", "bob"),
			policy: Policy{Tax: d("4"), Tip: decimal.Zero, TaxMode: models.SplitEqual, TipMode: models.SplitEqual},
			validateFunc: func(t *testing.T, res *Result) {
				// Alice: 20 + 4/2 = 22, Bob: 6 + 4/2 = 8
				assertAmount(t, "22", res.Splits["alice"].Total)
				assertAmount(t, "8", res.Splits["bob"].Total)
				assertAmount(t, "2", res.Splits["alice"].Tax)
				assertAmount(t, "2", res.Splits["bob"].Tax)
				assertAmount(t, "30", res.TotalBill)
				assertAmount(t, "0", res.Unallocated)
			},
		},
		{
			name: "proportional tax follows allocated share",
			items: []models.Item{
				item("pizza", "1", "20", "20", claim("alice", "1")),
				item("soda", "2", "3", "6", claim("bob", "2")),
			},
			people: people("alice", "bob"),
			policy: Policy{Tax: d("2.6"), TaxMode: models.SplitProportional, TipMode: models.SplitEqual},
			validateFunc: func(t *testing.T, res *Result) {
				// ratio = 2.6 / 26 = 0.1
				assertAmount(t, "22", res.Splits["alice"].Total)
				assertAmount(t, "6.6", res.Splits["bob"].Total)
			},
		},
		{
			name: "proportional tip is based on post-tax shares",
			items: []models.Item{
				item("salad", "1", "10", "10", claim("alice", "1")),
				item("steak", "1", "30", "30", claim("bob", "1")),
			},
			people: people("alice", "bob"),
			policy: Policy{Tax: d("4"), Tip: d("11"), TaxMode: models.SplitEqual, TipMode: models.SplitProportional},
			validateFunc: func(t *testing.T, res *Result) {
				// after tax: alice 12, bob 32 (44); tip ratio 11/44 = 0.25
				assertAmount(t, "3", res.Splits["alice"].Tip)
				assertAmount(t, "8", res.Splits["bob"].Tip)
				assertAmount(t, "15", res.Splits["alice"].Total)
				assertAmount(t, "40", res.Splits["bob"].Total)
				assertAmount(t, "55", res.TotalBill)
			},
		},
		{
			name:   "proportional with nothing claimed distributes nothing",
			items:  []models.Item{item("pizza", "1", "20", "20")},
			people: people("alice", "bob"),
			policy: Policy{Tax: d("5"), Tip: d("3"), TaxMode: models.SplitProportional, TipMode: models.SplitProportional},
			validateFunc: func(t *testing.T, res *Result) {
				assertAmount(t, "0", res.Splits["alice"].Total)
				assertAmount(t, "0", res.Splits["bob"].Total)
				assertAmount(t, "28", res.TotalBill)
				assertAmount(t, "28", res.Unallocated)
			},
		},
		{
			name:   "no people yields empty result",
			items:  []models.Item{item("pizza", "1", "20", "20", claim("ghost", "1"))},
			people: nil,
			policy: Policy{Tax: d("5"), TaxMode: models.SplitEqual, TipMode: models.SplitEqual},
			validateFunc: func(t *testing.T, res *Result) {
				assert.Empty(t, res.Splits)
				assertAmount(t, "25", res.TotalBill)
			},
		},
		{
			name: "people without claims still appear",
			items: []models.Item{
				item("pizza", "1", "20", "20", claim("alice", "1")),
			},
			people: people("alice", "bob", "carol"),
			policy: Policy{TaxMode: models.SplitEqual, TipMode: models.SplitEqual},
			validateFunc: func(t *testing.T, res *Result) {
				require.Len(t, res.Splits, 3)
				assertAmount(t, "0", res.Splits["bob"].Total)
				assertAmount(t, "0", res.Splits["carol"].Total)
				assert.Empty(t, res.Splits["carol"].Items)
			},
		},
		{
			name: "fractional claims",
			items: []models.Item{
				item("ribs", "1.5", "12", "18", claim("alice", "0.75"), claim("bob", "0.75")),
			},
			people: people("alice", "bob"),
			policy: Policy{TaxMode: models.SplitEqual, TipMode: models.SplitEqual},
			validateFunc: func(t *testing.T, res *Result) {
				assertAmount(t, "9", res.Splits["alice"].Total)
				assertAmount(t, "9", res.Splits["bob"].Total)
				require.Len(t, res.Splits["alice"].Items, 1)
				assertAmount(t, "0.75", res.Splits["alice"].Items[0].Quantity)
			},
		},
		{
			name: "claims of unknown people are ignored",
			items: []models.Item{
				item("pizza", "2", "10", "20", claim("alice", "1"), claim("deleted", "1")),
			},
			people: people("alice"),
			policy: Policy{Tax: d("2"), TaxMode: models.SplitProportional, TipMode: models.SplitEqual},
			validateFunc: func(t *testing.T, res *Result) {
				require.Len(t, res.Splits, 1)
				assertAmount(t, "12", res.Splits["alice"].Total)
			},
		},
		{
			name: "total bill uses stored total price",
			items: []models.Item{
				item("combo", "2", "3", "5", claim("alice", "2")),
			},
			people: people("alice"),
			policy: Policy{Tip: d("1"), TaxMode: models.SplitEqual, TipMode: models.SplitEqual},
			validateFunc: func(t *testing.T, res *Result) {
				assertAmount(t, "6", res.TotalBill)
				assertAmount(t, "7", res.Splits["alice"].Total)
				assertAmount(t, "-1", res.Unallocated)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CalculateSplit(tt.items, tt.people, tt.policy)
			require.NotNil(t, res)
			if tt.validateFunc != nil {
				tt.validateFunc(t, res)
			}
		})
	}
}

func TestComputeShares_EqualSplitIsIdenticalPerPerson(t *testing.T) {
	ps := people("alice", "bob", "carol")
	shares := ComputeShares(nil, ps, Policy{Tax: d("10"), Tip: d("5"), TaxMode: models.SplitEqual, TipMode: models.SplitEqual})

	require.Len(t, shares, 3)
	first := shares["alice"]
	sum := decimal.Zero
	for _, p := range ps {
		assert.True(t, shares[p.ID].Equal(first), "%s share %s differs from %s", p.ID, shares[p.ID], first)
		sum = sum.Add(shares[p.ID])
	}
	assert.True(t, sum.Sub(d("15")).Abs().LessThan(d("0.000000001")), "sum %s not within rounding of 15", sum)
}

func TestComputeShares_SumMatchesClaimsWithoutTaxOrTip(t *testing.T) {
	items := []models.Item{
		item("a", "3", "4.15", "12.45", claim("p1", "1"), claim("p2", "1.5"), claim("p3", "0.5")),
		item("b", "1", "19.99", "19.99", claim("p2", "1")),
		item("c", "2.5", "7.333", "18.33", claim("p1", "2.5"), claim("p3", "3")),
		item("d", "1", "100", "100"),
	}
	shares := ComputeShares(items, people("p1", "p2", "p3"), Policy{TaxMode: models.SplitProportional, TipMode: models.SplitEqual})

	want := decimal.Zero
	for _, it := range items {
		for _, c := range it.Claims {
			want = want.Add(c.Quantity.Mul(it.UnitPrice))
		}
	}
	got := decimal.Zero
	for _, s := range shares {
		got = got.Add(s)
	}
	assert.True(t, got.Equal(want), "sum of shares %s != sum of claims %s", got, want)
}

func TestComputeShares_OrderIndependent(t *testing.T) {
	items := []models.Item{
		item("a", "3", "4.15", "12.45", claim("p1", "1"), claim("p2", "1.5")),
		item("b", "1", "19.99", "19.99", claim("p2", "1"), claim("p3", "1")),
		item("c", "2", "7", "14", claim("p3", "2"), claim("p1", "0.25")),
	}
	ps := people("p1", "p2", "p3")
	policy := Policy{Tax: d("3.17"), Tip: d("9.5"), TaxMode: models.SplitProportional, TipMode: models.SplitProportional}
	want := ComputeShares(items, ps, policy)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffledItems := append([]models.Item(nil), items...)
		rng.Shuffle(len(shuffledItems), func(a, b int) { shuffledItems[a], shuffledItems[b] = shuffledItems[b], shuffledItems[a] })
		for j := range shuffledItems {
			cs := append([]models.Claim(nil), shuffledItems[j].Claims...)
			rng.Shuffle(len(cs), func(a, b int) { cs[a], cs[b] = cs[b], cs[a] })
			shuffledItems[j].Claims = cs
		}
		shuffledPeople := append([]models.Person(nil), ps...)
		rng.Shuffle(len(shuffledPeople), func(a, b int) { shuffledPeople[a], shuffledPeople[b] = shuffledPeople[b], shuffledPeople[a] })

		got := ComputeShares(shuffledItems, shuffledPeople, policy)
		for id, amount := range want {
			assert.True(t, got[id].Equal(amount), "iteration %d: %s got %s want %s", i, id, got[id], amount)
		}
	}
}

func TestClaimStatuses(t *testing.T) {
	statuses := ClaimStatuses([]models.Item{
		item("pizza", "1", "20", "20", claim("alice", "0.5"), claim("bob", "1")),
		item("soda", "2", "3", "6", claim("bob", "1")),
	})
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Overclaimed)
	assertAmount(t, "-0.5", statuses[0].Remaining)
	assert.False(t, statuses[1].Overclaimed)
	assertAmount(t, "1", statuses[1].Remaining)
}
