package game

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"BreachProtocol/internal/dag"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// UpgradeID names a permanent purchasable upgrade.
type UpgradeID string

const (
	UpgradeIceBreaker        UpgradeID = "iceBreaker"
	UpgradeSequenceDecryptor UpgradeID = "sequenceDecryptor"
	UpgradeCreditScrubber    UpgradeID = "creditScrubber"
)

// Upgrade is a catalog entry in the upgrade shop.
type Upgrade struct {
	ID          UpgradeID `yaml:"id" json:"id" validate:"required"`
	Name        string    `yaml:"name" json:"name" validate:"required"`
	Description string    `yaml:"description" json:"description"`
	Cost        float64   `yaml:"cost" json:"cost" validate:"gte=0"`
}

// IntelLog is narrative text unlocked by breaching a node.
type IntelLog struct {
	Title   string `yaml:"title" json:"title" validate:"required"`
	Content string `yaml:"content" json:"content" validate:"required"`
}

// Catalog is the immutable campaign content: nodes, upgrades and intel.
type Catalog struct {
	Nodes    []*NetworkNode      `yaml:"nodes"`
	Upgrades []Upgrade           `yaml:"upgrades"`
	Intel    map[string]IntelLog `yaml:"intel"`

	graph    *dag.Graph
	byID     map[string]*NetworkNode
	upgrades map[UpgradeID]Upgrade
}

// DefaultCatalog returns the built-in campaign.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML catalog content and validates it.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every node, the upgrade list, intel references and the
// prerequisite graph, then builds the lookup indexes.
func (c *Catalog) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("%w: catalog has no nodes", ErrInvalidConfig)
	}

	byID := make(map[string]*NetworkNode, len(c.Nodes))
	dagNodes := make([]*dag.Node, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		if _, dup := byID[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node %s", ErrInvalidConfig, n.ID)
		}
		if n.IntelID != "" {
			if _, ok := c.Intel[n.IntelID]; !ok {
				return fmt.Errorf("%w: node %s references missing intel %s", ErrInvalidConfig, n.ID, n.IntelID)
			}
		}
		byID[n.ID] = n

		requires := make([]dag.NodeID, 0, len(n.Requires))
		for _, r := range n.Requires {
			requires = append(requires, dag.NodeID(r))
		}
		dagNodes = append(dagNodes, &dag.Node{ID: dag.NodeID(n.ID), Label: n.Name, Requires: requires})
	}

	graph, err := dag.New(dagNodes)
	if err != nil {
		if errors.Is(err, dag.ErrCycleDetected) || errors.Is(err, dag.ErrNodeNotFound) || errors.Is(err, dag.ErrDuplicateNode) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return err
	}
	if len(graph.Roots) == 0 {
		return fmt.Errorf("%w: no node is open at campaign start", ErrInvalidConfig)
	}

	upgrades := make(map[UpgradeID]Upgrade, len(c.Upgrades))
	for _, u := range c.Upgrades {
		if err := validate.Struct(u); err != nil {
			return fmt.Errorf("%w: upgrade %s: %v", ErrInvalidConfig, u.ID, err)
		}
		if _, dup := upgrades[u.ID]; dup {
			return fmt.Errorf("%w: duplicate upgrade %s", ErrInvalidConfig, u.ID)
		}
		upgrades[u.ID] = u
	}
	for id, log := range c.Intel {
		if err := validate.Struct(log); err != nil {
			return fmt.Errorf("%w: intel %s: %v", ErrInvalidConfig, id, err)
		}
	}

	c.graph = graph
	c.byID = byID
	c.upgrades = upgrades
	return nil
}

// Node returns a node by id.
func (c *Catalog) Node(id string) (*NetworkNode, bool) {
	n, ok := c.byID[id]
	return n, ok
}

// Graph returns the validated prerequisite graph.
func (c *Catalog) Graph() *dag.Graph { return c.graph }

// Upgrade returns an upgrade by id.
func (c *Catalog) Upgrade(id UpgradeID) (Upgrade, bool) {
	u, ok := c.upgrades[id]
	return u, ok
}
