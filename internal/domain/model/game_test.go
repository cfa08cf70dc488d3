package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/gamestore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPrice(t *testing.T) {
	Convey("Given prices scanned from the database", t, func() {
		Convey("Then driver values map to prices", func() {
			So(model.PriceFromDB(nil).Present(), ShouldBeFalse)
			So(model.PriceFromDB(int64(5)).Value(), ShouldEqual, 5.0)
			So(model.PriceFromDB(12.5).String(), ShouldEqual, "12.5")
			So(model.PriceFromDB([]byte("₺99,00")).String(), ShouldEqual, "₺99,00")
			So(model.PriceFromDB(true).Present(), ShouldBeFalse)
		})

		Convey("Then presence follows page truthiness", func() {
			So(model.NumberPrice(0).Present(), ShouldBeFalse)
			So(model.TextPrice("").Present(), ShouldBeFalse)
			So(model.NoPrice().Present(), ShouldBeFalse)
			So(model.NumberPrice(19.99).Present(), ShouldBeTrue)
			So(model.TextPrice("₺0,00").Present(), ShouldBeTrue)
		})
	})
}

func TestGameRecordJSON(t *testing.T) {
	Convey("Given a game record", t, func() {
		url := "https://store.steampowered.com/app/1"
		g := model.GameRecord{
			Name:       "Portal 2",
			SteamPrice: model.TextPrice("₺36,00"),
			EpicPrice:  model.NoPrice(),
			Metascore:  95,
			SteamURL:   &url,
		}

		Convey("When encoding it", func() {
			b, err := json.Marshal(g)
			So(err, ShouldBeNil)

			var raw map[string]any
			So(json.Unmarshal(b, &raw), ShouldBeNil)

			Convey("Then the column aliases are used and absent values are null", func() {
				So(raw["Game Name"], ShouldEqual, "Portal 2")
				So(raw["Steam Price"], ShouldEqual, "₺36,00")
				So(raw["Epic Price"], ShouldBeNil)
				So(raw["Metascore"], ShouldEqual, 95.0)
				So(raw["Steam URL"], ShouldEqual, url)
				So(raw["Epic URL"], ShouldBeNil)
			})
		})

		Convey("When decoding mixed price kinds", func() {
			var back model.GameRecord
			err := json.Unmarshal([]byte(`{"Game Name":"Portal 2","Steam Price":36,"Epic Price":null,"Metascore":95}`), &back)

			Convey("Then numbers, strings and null survive", func() {
				So(err, ShouldBeNil)
				So(back.SteamPrice.Value(), ShouldEqual, 36.0)
				So(back.HasSteam(), ShouldBeTrue)
				So(back.HasEpic(), ShouldBeFalse)
			})

			Convey("And invalid prices are rejected", func() {
				So(json.Unmarshal([]byte(`{"Steam Price":[1]}`), &back), ShouldNotBeNil)
			})
		})
	})
}
