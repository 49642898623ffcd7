package devfile

// File is a complete device description.
//
//	device xcsyn8 ;
//	...
//	end xcsyn8 ;
type File struct {
	Name    string  `"device" @Ident ";"`
	Decls   []*Decl `@@*`
	EndName string  `"end" @Ident ";"`
}

// Decl is one top-level declaration.
type Decl struct {
	Node *NodeDecl `  @@`
	PIP  *PIPDecl  `| @@`
	Site *SiteDecl `| @@`
}

// NodeDecl declares a routing node.
// Example: node RCLK_X0Y0/ROUTE0 clock_route track 0 region(0,0);
type NodeDecl struct {
	Name   string     `"node" @NodeName`
	Type   string     `@Ident`
	Track  *int       `( "track" @Int )?`
	Region *RegionRef `@@? ";"`
}

// RegionRef is a clock region coordinate.
type RegionRef struct {
	X int `"region" "(" @Int`
	Y int `"," @Int ")"`
}

// PIPDecl declares a PIP, optionally realised through a site BEL.
// Example: pip INT_X0Y0/IMUX_0 -> CLE_X0Y0/A_O routethru SLICE_X0Y0 ALUT;
type PIPDecl struct {
	From      string        `"pip" @NodeName`
	To        string        `Arrow @NodeName`
	RouteThru *RouteThruRef `@@? ";"`
}

// RouteThruRef names the site and BEL a route-through PIP borrows.
type RouteThruRef struct {
	Site string `"routethru" @Ident`
	BEL  string `@Ident`
}

// SiteDecl declares a site together with its pins and BELs.
type SiteDecl struct {
	Name   string      `"site" @Ident`
	Type   string      `@Ident`
	Tile   string      `"tile" @Ident`
	Region *RegionRef  `@@?`
	Items  []*SiteItem `"{" @@* "}"`
}

// SiteItem is a pin or BEL inside a site block.
type SiteItem struct {
	Pin *PinDecl `  @@`
	BEL *BELDecl `| @@`
}

// PinDecl binds a site pin to a node.
// Example: pin A1 in INT_X0Y0/IMUX_0;
type PinDecl struct {
	Name string `"pin" @Ident`
	Dir  string `@( "in" | "out" )`
	Node string `@NodeName ";"`
}

// BELDecl declares a basic element. LUT BELs name the output pin they drive.
// Example: bel ALUT lut A_O;
type BELDecl struct {
	Name   string `"bel" @Ident`
	Kind   string `@Ident`
	Output string `@Ident? ";"`
}
