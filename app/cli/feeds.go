package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/feed"
	"github.com/statalih/statalih/app/tasks"
)

type feedsCommand struct {
	Add   feedsAddCommand   `command:"add" description:"Fetch a feed and store it with its items and images"`
	List  feedsListCommand  `command:"list" description:"List stored feeds"`
	Items feedsItemsCommand `command:"items" description:"List stored items of a feed"`
}

type feedsAddCommand struct {
	app *App
	OutputOptions

	URL         string  `long:"url" required:"true" description:"Feed URL (http or https)"`
	Title       *string `long:"title" description:"Title to store instead of the feed's own"`
	Slug        *string `long:"slug" description:"Slug to store instead of one derived from the title"`
	Description *string `long:"description" description:"Description to store instead of the feed's own"`
	Coordinates *string `long:"coordinates" description:"Feed location as \"latitude;longitude\""`
	Place       *int64  `long:"place" description:"ID of the place the feed belongs to"`
}

type addFeedOutput struct {
	Result       string             `json:"result"`
	State        string             `json:"state,omitempty"`
	Error        string             `json:"error,omitempty"`
	ExistingID   int64              `json:"existing_id,omitempty"`
	Feed         *database.Feed     `json:"feed,omitempty"`
	Items        int                `json:"items"`
	ImagesStored int                `json:"images_stored"`
	ImageErrors  []imageErrorOutput `json:"image_errors,omitempty"`
	NotAttempted []string           `json:"not_attempted,omitempty"`
}

type imageErrorOutput struct {
	GUID  string `json:"guid"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

func (c *feedsAddCommand) Execute(args []string) error {
	db, err := c.app.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := c.app.newPipeline(database.NewStore(db))
	if err != nil {
		return err
	}

	input := tasks.AddFeedInput{
		URL: c.URL,
		Overrides: feed.Overrides{
			Title:       feed.FromPtr(c.Title),
			Slug:        feed.FromPtr(c.Slug),
			Description: feed.FromPtr(c.Description),
		},
		Coordinates: feed.FromPtr(c.Coordinates),
		PlaceID:     feed.FromPtr(c.Place),
	}

	result := tasks.NewAddFeedTask(input, pipeline).Execute(c.app.ctx)

	out := newAddFeedOutput(result)
	if err := c.render(c.app.out, out, func(tw *tabwriter.Writer) { addFeedTable(tw, out) }); err != nil {
		return err
	}

	if result.Status == tasks.StatusDone {
		return nil
	}
	// already reported on out
	return &exitError{code: ExitCode(result.Err)}
}

func newAddFeedOutput(result *tasks.Result) addFeedOutput {
	out := addFeedOutput{
		Result:       result.String(),
		ExistingID:   result.ExistingID(),
		Feed:         result.Feed,
		Items:        result.ItemCount,
		ImagesStored: result.ImagesStored,
		NotAttempted: result.NotAttempted,
	}

	if result.Status == tasks.StatusFailed {
		out.Result = string(result.Status)
		out.State = string(result.FailedIn)
		if result.Err != nil {
			out.Error = result.Err.Error()
		}
	}

	for _, imgErr := range result.ImageErrors {
		out.ImageErrors = append(out.ImageErrors, imageErrorOutput{
			GUID:  imgErr.GUID,
			URL:   imgErr.URL,
			Error: imgErr.Cause.Error(),
		})
	}

	return out
}

func addFeedTable(tw *tabwriter.Writer, out addFeedOutput) {
	row(tw, "Result", out.Result)

	if out.Error != "" {
		row(tw, "Failed in", out.State)
		row(tw, "Error", out.Error)
		return
	}
	if out.ExistingID != 0 {
		row(tw, "Existing ID", out.ExistingID)
		return
	}

	if f := out.Feed; f != nil {
		row(tw, "ID", f.ID)
		row(tw, "Title", f.Title)
		row(tw, "Slug", f.Slug)
		row(tw, "Source URL", f.SourceURL)
		if f.Coordinates != nil {
			row(tw, "Coordinates", f.Coordinates.String())
		}
		if f.PlaceID != nil {
			row(tw, "Place", *f.PlaceID)
		}
	}
	row(tw, "Items", out.Items)
	row(tw, "Images", out.ImagesStored)

	for _, imgErr := range out.ImageErrors {
		fmt.Fprintf(tw, "Image error:\t%s\t%s\t%s\n", imgErr.GUID, imgErr.URL, imgErr.Error)
	}
	for _, guid := range out.NotAttempted {
		row(tw, "Not attempted", guid)
	}
}

type feedsListCommand struct {
	app *App
	OutputOptions
}

func (c *feedsListCommand) Execute(args []string) error {
	db, err := c.app.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	feeds, err := database.NewFeedRepository(db).List(c.app.ctx)
	if err != nil {
		return err
	}

	return c.render(c.app.out, feeds, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tSLUG\tTITLE\tPLACE\tSOURCE URL\tLAST FETCH")
		for _, f := range feeds {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
				f.ID, f.Slug, f.Title, formatID(f.PlaceID), f.SourceURL, formatTime(f.LastFetchAt))
		}
	})
}

type feedsItemsCommand struct {
	app *App
	OutputOptions

	Feed  int64 `long:"feed" required:"true" description:"Feed ID"`
	Limit int   `long:"limit" default:"20" description:"Maximum number of items, 0 for all"`
}

func (c *feedsItemsCommand) Execute(args []string) error {
	db, err := c.app.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store := database.NewStore(db)

	f, err := store.Feeds.FindByID(c.app.ctx, c.Feed)
	if err != nil {
		return err
	}
	if f == nil {
		return &exitError{code: ExitInput, err: fmt.Errorf("feed %d not found", c.Feed)}
	}

	items, err := store.Items.ListByFeed(c.app.ctx, f.ID, c.Limit)
	if err != nil {
		return err
	}

	return c.render(c.app.out, items, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tGUID\tTITLE\tPUBLISHED\tIMAGE")
		for _, item := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				item.ID, item.GUID, item.Title, formatTime(item.PublishedAt), formatID(item.ImageID))
		}
	})
}
