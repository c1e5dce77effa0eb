package rollup

import (
	"strconv"
	"testing"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func employee(id, managerID, name string) rollup.EmployeeRecord {
	rec := rollup.EmployeeRecord{ID: id, Name: name, Status: rollup.StatusIn}
	if managerID != "" {
		rec.ManagerID = ptr(managerID)
	}
	return rec
}

func mustCollator(t *testing.T) NameCollator {
	t.Helper()
	names, err := NewNameCollator("tr")
	require.NoError(t, err)
	return names
}

func ids(nodes []*rollup.TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestBuildForest_SingleRootWithReports(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("2", "1", "Zeynep"),
		employee("1", "", "Boss"),
		employee("3", "1", "Ahmet"),
	}

	forest := BuildForest(records, mustCollator(t))

	require.Len(t, forest, 1)
	assert.Equal(t, "1", forest[0].ID)
	assert.Equal(t, []string{"3", "2"}, ids(forest[0].Children))
	assert.Equal(t, 3, CountNodes(forest))
}

func TestBuildForest_ManagersBeforeIndividualContributors(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("root", "", "Root"),
		employee("a", "root", "Aaron"),
		employee("z", "root", "Zack"),
		employee("z1", "z", "Yusuf"),
	}

	forest := BuildForest(records, mustCollator(t))

	require.Len(t, forest, 1)
	assert.Equal(t, []string{"z", "a"}, ids(forest[0].Children))
}

func TestBuildForest_LocaleAwareNameOrder(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("1", "", "Zafer"),
		employee("2", "", "Çağlar"),
		employee("3", "", "Cem"),
		employee("4", "", "Deniz"),
	}

	forest := BuildForest(records, mustCollator(t))

	// Turkish collation places Ç between C and D.
	assert.Equal(t, []string{"3", "2", "4", "1"}, ids(forest))
}

func TestBuildForest_DanglingManagerBecomesRoot(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("1", "", "Alice"),
		employee("2", "ghost", "Bob"),
	}

	forest := BuildForest(records, mustCollator(t))

	assert.ElementsMatch(t, []string{"1", "2"}, ids(forest))
	assert.Equal(t, 2, CountNodes(forest))
}

func TestBuildForest_BlankAndSelfReferencesAreRoots(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("1", "   ", "Alice"),
		employee("2", "2", "Bob"),
	}

	forest := BuildForest(records, mustCollator(t))

	assert.Equal(t, []string{"1", "2"}, ids(forest))
}

func TestBuildForest_TrimsManagerReference(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("1", "", "Alice"),
		employee("2", " 1 ", "Bob"),
	}

	forest := BuildForest(records, mustCollator(t))

	require.Len(t, forest, 1)
	assert.Equal(t, []string{"2"}, ids(forest[0].Children))
}

func TestBuildForest_CycleIsBrokenAtFirstRecord(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("a", "c", "Anna"),
		employee("b", "a", "Berk"),
		employee("c", "b", "Cansu"),
	}

	forest := BuildForest(records, mustCollator(t))

	require.Len(t, forest, 1)
	assert.Equal(t, "a", forest[0].ID)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "b", forest[0].Children[0].ID)
	require.Len(t, forest[0].Children[0].Children, 1)
	assert.Equal(t, "c", forest[0].Children[0].Children[0].ID)
	assert.Empty(t, forest[0].Children[0].Children[0].Children)
	assert.Equal(t, 3, CountNodes(forest))
}

func TestBuildForest_CycleWithHangingReport(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("x", "b", "Xavier"),
		employee("a", "b", "Anna"),
		employee("b", "a", "Berk"),
	}

	forest := BuildForest(records, mustCollator(t))

	// x is not on the loop, so the loop member listed first (a) is promoted.
	require.Len(t, forest, 1)
	assert.Equal(t, "a", forest[0].ID)
	assert.Equal(t, 3, CountNodes(forest))

	node, path, ok := FindNode(forest, "x")
	require.True(t, ok)
	assert.Equal(t, "x", node.ID)
	assert.Equal(t, []string{"a", "b"}, path)
}

func TestBuildForest_EveryRecordAppearsExactlyOnce(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("1", "", "Root"),
		employee("2", "1", "B"),
		employee("3", "2", "C"),
		employee("4", "5", "D"),
		employee("5", "4", "E"),
		employee("6", "missing", "F"),
		employee("7", "7", "G"),
	}

	forest := BuildForest(records, mustCollator(t))

	seen := map[string]int{}
	Walk(forest, func(n *rollup.TreeNode, _ int) bool {
		seen[n.ID]++
		return true
	})
	assert.Len(t, seen, len(records))
	for id, count := range seen {
		assert.Equal(t, 1, count, "node %s", id)
	}
}

func TestBuildForest_EmptyInput(t *testing.T) {
	forest := BuildForest(nil, mustCollator(t))

	assert.Empty(t, forest)
	assert.Equal(t, 0, CountNodes(forest))
}

func TestBuildForest_DoesNotMutateRecords(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("1", "", "Alice"),
		employee("2", "1", "Bob"),
	}

	forest := BuildForest(records, mustCollator(t))
	*forest[0].Children[0].ManagerID = "changed"

	assert.Equal(t, "1", *records[1].ManagerID)
}

func TestBuildForest_DerivedFields(t *testing.T) {
	rec := employee("1", "", "ayşe nur yılmaz")
	rec.IsOnLeave = true
	rec.LeaveStatus = ptr("Annual Leave")
	rec.CompletedHours = 50
	rec.MonthTargetHours = 100

	forest := BuildForest([]rollup.EmployeeRecord{rec}, mustCollator(t))

	require.Len(t, forest, 1)
	n := forest[0]
	assert.Equal(t, "AY", n.Initials)
	assert.Equal(t, rollup.PresenceLeave, n.Presence)
	assert.Equal(t, "Annual Leave", n.Label)
	assert.InDelta(t, 50, n.Progress.CompletedPercent, 1e-9)
	assert.NotNil(t, n.Children)
}

func TestBuildForest_DeepChainIsIterative(t *testing.T) {
	const depth = 50000
	records := make([]rollup.EmployeeRecord, depth)
	records[0] = employee("0", "", "Root")
	for i := 1; i < depth; i++ {
		records[i] = employee(strconv.Itoa(i), strconv.Itoa(i-1), "E")
	}

	forest := BuildForest(records, mustCollator(t))

	require.Len(t, forest, 1)
	assert.Equal(t, depth, CountNodes(forest))
}

func TestFindNode(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("1", "", "Root"),
		employee("2", "1", "Mid"),
		employee("3", "2", "Leaf"),
		employee("4", "", "Other"),
	}
	forest := BuildForest(records, mustCollator(t))

	node, path, ok := FindNode(forest, "3")
	require.True(t, ok)
	assert.Equal(t, "Leaf", node.Name)
	assert.Equal(t, []string{"1", "2"}, path)

	node, path, ok = FindNode(forest, "4")
	require.True(t, ok)
	assert.Equal(t, "Other", node.Name)
	assert.Empty(t, path)

	_, _, ok = FindNode(forest, "nope")
	assert.False(t, ok)
}

func TestWalk_SkipsSubtreeAndReportsDepth(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("1", "", "Root"),
		employee("2", "1", "Mid"),
		employee("3", "2", "Leaf"),
	}
	forest := BuildForest(records, mustCollator(t))

	var visited []string
	var depths []int
	Walk(forest, func(n *rollup.TreeNode, depth int) bool {
		visited = append(visited, n.ID)
		depths = append(depths, depth)
		return n.ID != "2"
	})

	assert.Equal(t, []string{"1", "2"}, visited)
	assert.Equal(t, []int{0, 1}, depths)
}

func TestNewNameCollator_InvalidLocale(t *testing.T) {
	_, err := NewNameCollator("not a locale!")
	assert.Error(t, err)
}

func TestBuildForest_DuplicateIDs(t *testing.T) {
	tests := []struct {
		name         string
		records      []rollup.EmployeeRecord
		wantRoots    []string
		wantNodes    int
		parentOf     string
		wantParentOf string
	}{
		{
			name: "reports attach to the last record with the id",
			records: []rollup.EmployeeRecord{
				employee("1", "", "Boss"),
				employee("2", "1", "First Two"),
				employee("2", "1", "Second Two"),
				employee("3", "2", "Report"),
			},
			wantRoots:    []string{"1"},
			wantNodes:    4,
			parentOf:     "Report",
			wantParentOf: "Second Two",
		},
		{
			name: "duplicate roots both survive",
			records: []rollup.EmployeeRecord{
				employee("1", "", "Boss"),
				employee("1", "", "Boss Again"),
				employee("2", "1", "Report"),
			},
			wantRoots:    []string{"1", "1"},
			wantNodes:    3,
			parentOf:     "Report",
			wantParentOf: "Boss Again",
		},
		{
			name: "duplicate of own manager",
			records: []rollup.EmployeeRecord{
				employee("1", "", "Boss"),
				employee("1", "1", "Self Twin"),
			},
			wantRoots: []string{"1", "1"},
			wantNodes: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forest := BuildForest(tt.records, mustCollator(t))

			assert.Equal(t, tt.wantRoots, ids(forest))
			assert.Equal(t, tt.wantNodes, CountNodes(forest))

			if tt.parentOf == "" {
				return
			}
			parents := map[string]string{}
			Walk(forest, func(n *rollup.TreeNode, _ int) bool {
				for _, c := range n.Children {
					parents[c.Name] = n.Name
				}
				return true
			})
			assert.Equal(t, tt.wantParentOf, parents[tt.parentOf])
		})
	}
}

func TestBuildForest_NamedExamples(t *testing.T) {
	t.Run("leaves ordered alphabetically", func(t *testing.T) {
		records := []rollup.EmployeeRecord{
			employee("1", "", "Ayşe"),
			employee("2", "1", "Can"),
			employee("3", "1", "Bora"),
		}

		forest := BuildForest(records, mustCollator(t))

		require.Len(t, forest, 1)
		assert.Equal(t, "1", forest[0].ID)
		assert.Equal(t, []string{"3", "2"}, ids(forest[0].Children))
		for _, c := range forest[0].Children {
			assert.False(t, c.HasChildren())
		}
	})

	t.Run("absent manager", func(t *testing.T) {
		forest := BuildForest([]rollup.EmployeeRecord{employee("1", "9", "Ece")}, mustCollator(t))

		assert.Equal(t, []string{"1"}, ids(forest))
	})
}
