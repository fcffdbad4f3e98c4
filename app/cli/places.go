package cli

import (
	"cmp"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/feed"
)

type placesCommand struct {
	Add  placesAddCommand  `command:"add" description:"Add a place"`
	List placesListCommand `command:"list" description:"List places"`
}

type placesAddCommand struct {
	app *App
	OutputOptions

	Name             string `long:"name" required:"true" description:"Place name"`
	Slug             string `long:"slug" description:"Slug (default: derived from the name)"`
	Parent           *int64 `long:"parent" description:"ID of the parent place"`
	Coordinates      string `long:"coordinates" description:"Location as \"latitude;longitude\""`
	Link             string `long:"link" description:"Web site of the place (http or https)"`
	Description      string `long:"description" description:"Place description"`
	AdministrativeID string `long:"administrative-id" description:"Official identifier, e.g. a municipality key"`
}

func (c *placesAddCommand) Execute(args []string) error {
	place := &database.Place{
		ParentID:         c.Parent,
		Name:             strings.TrimSpace(c.Name),
		Slug:             feed.Slugify(cmp.Or(c.Slug, c.Name)),
		AdministrativeID: strings.TrimSpace(c.AdministrativeID),
		Description:      strings.Join(strings.Fields(c.Description), " "),
	}

	if place.Name == "" || place.Slug == "" {
		return &exitError{code: ExitInput, err: fmt.Errorf("place name %q does not yield a slug", c.Name)}
	}

	if c.Coordinates != "" {
		coords, err := feed.ParseCoordinates(c.Coordinates)
		if err != nil {
			return err
		}
		place.Coordinates = &coords
	}

	if c.Link != "" {
		link, err := feed.ValidateURL(c.Link)
		if err != nil {
			return err
		}
		place.Link = link.String()
	}

	db, err := c.app.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	places := database.NewPlaceRepository(db)

	if c.Parent != nil {
		parent, err := places.FindByID(c.app.ctx, *c.Parent)
		if err != nil {
			return err
		}
		if parent == nil {
			return &feed.UnknownPlaceError{ID: *c.Parent}
		}
	}

	if _, err := places.Create(c.app.ctx, place); err != nil {
		return err
	}

	return c.render(c.app.out, place, func(tw *tabwriter.Writer) {
		row(tw, "ID", place.ID)
		row(tw, "Name", place.Name)
		row(tw, "Slug", place.Slug)
		if place.ParentID != nil {
			row(tw, "Parent", *place.ParentID)
		}
		if place.Coordinates != nil {
			row(tw, "Coordinates", place.Coordinates.String())
		}
		if place.Link != "" {
			row(tw, "Link", place.Link)
		}
		if place.AdministrativeID != "" {
			row(tw, "Administrative ID", place.AdministrativeID)
		}
	})
}

type placesListCommand struct {
	app *App
	OutputOptions
}

func (c *placesListCommand) Execute(args []string) error {
	db, err := c.app.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	places, err := database.NewPlaceRepository(db).List(c.app.ctx)
	if err != nil {
		return err
	}

	return c.render(c.app.out, places, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tSLUG\tNAME\tPARENT\tCOORDINATES")
		for _, p := range places {
			coords := ""
			if p.Coordinates != nil {
				coords = p.Coordinates.String()
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Slug, p.Name, formatID(p.ParentID), coords)
		}
	})
}
